package batch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookops/overload/pkg/batch"
	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/marc"
	"github.com/bookops/overload/pkg/match"
)

type stubSource struct {
	byValue map[string][]match.Candidate
}

func (s *stubSource) Lookup(_ context.Context, _ bibs.Matchpoint, value string) ([]match.Candidate, error) {
	return s.byValue[value], nil
}

func newBPLBib(controlNo, isbn, barcode string) *bibs.Bib {
	record := &marc.Record{
		Leader: "00000nam a2200000 a 4500",
		Fields: []marc.Field{
			marc.NewControlField("001", controlNo),
			marc.NewControlField("005", "20240301120000.0"),
			marc.NewField("020", " ", " ", marc.Subfield{Code: "a", Value: isbn}),
			marc.NewField("245", "1", "0", marc.Subfield{Code: "a", Value: "Title " + controlNo}),
			marc.NewField("960", " ", " ", marc.Subfield{Code: "i", Value: barcode}),
		},
	}
	return bibs.FromRecord(record, bibs.SystemBPL)
}

func selConfig() batch.Config {
	return batch.Config{
		System:      bibs.SystemBPL,
		Workflow:    bibs.WorkflowSelection,
		Collection:  bibs.CollectionNone,
		Matchpoints: bibs.Matchpoints{Primary: bibs.MatchpointISBN},
		Template: &bibs.Template{
			Name:        "sel",
			Agent:       "selector",
			Matchpoints: bibs.Matchpoints{Primary: bibs.MatchpointISBN},
		},
	}
}

func TestProcessMatchesAndUpdates(t *testing.T) {
	source := &stubSource{byValue: map[string][]match.Candidate{
		"9780000000001": {{
			BibID:            "b100000001",
			System:           bibs.SystemBPL,
			BranchCallNumber: "FIC A",
		}},
	}}
	processor, err := batch.NewProcessor(selConfig(), source, "")
	require.NoError(t, err)

	records := []*bibs.Bib{
		newBPLBib("on100", "9780000000001", "34444000000001"),
		newBPLBib("on200", "9780000000002", "34444000000002"),
	}
	outcomes, barcodes, err := processor.Process(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{"34444000000001", "34444000000002"}, barcodes)

	// First record matched and attaches; bib ID was applied to the record.
	assert.Equal(t, match.ActionAttach, outcomes[0].Resolution.Action)
	assert.Equal(t, "b100000001", outcomes[0].Bib.BibID)
	require.NotNil(t, outcomes[0].Bib.Record.Get("907"))
	assert.Equal(t, "b100000001", outcomes[0].Bib.Record.Get("907").Get("a"))

	// Second record found nothing and inserts.
	assert.Equal(t, match.ActionInsert, outcomes[1].Resolution.Action)
	assert.NoError(t, outcomes[1].Err)
}

func TestProcessDuplicateBarcodesAbortBatch(t *testing.T) {
	processor, err := batch.NewProcessor(selConfig(), &stubSource{}, "")
	require.NoError(t, err)

	records := []*bibs.Bib{
		newBPLBib("on100", "9780000000001", "34444000000001"),
		newBPLBib("on200", "9780000000002", "34444000000001"),
	}
	_, _, err = processor.Process(context.Background(), records)
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	assert.Contains(t, err.Error(), "34444000000001")
}

type failingSource struct {
	err error
}

func (f *failingSource) Lookup(context.Context, bibs.Matchpoint, string) ([]match.Candidate, error) {
	return nil, f.err
}

func TestProcessLookupFailureAbortsBatch(t *testing.T) {
	source := &failingSource{err: &errors.LookupError{
		Backend:    "solr",
		Matchpoint: "isbn",
		Value:      "9780000000001",
		Err:        errors.New("connection refused"),
	}}
	processor, err := batch.NewProcessor(selConfig(), source, "")
	require.NoError(t, err)

	records := []*bibs.Bib{
		newBPLBib("on100", "9780000000001", "34444000000001"),
		newBPLBib("on200", "9780000000002", "34444000000002"),
	}
	outcomes, _, err := processor.Process(context.Background(), records)
	require.Error(t, err)
	assert.True(t, errors.IsLookup(err))
	assert.Contains(t, err.Error(), "on100")

	// Outcomes still report per record, and none of them reach an output file.
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	batches := batch.Dedupe(outcomes)
	assert.Empty(t, batches.New)
	assert.Empty(t, batches.Deduped)
}

func TestProcessCallNumberIntegrityAbortsBatch(t *testing.T) {
	record := &marc.Record{
		Leader: "00000nam a2200000 a 4500",
		Fields: []marc.Field{
			marc.NewControlField("001", "on100"),
			marc.NewField("020", " ", " ", marc.Subfield{Code: "a", Value: "9780000000001"}),
			marc.NewField("091", " ", " ", marc.Subfield{Code: "a", Value: "J GRAPHIC X"}),
			marc.NewField("245", "1", "0", marc.Subfield{Code: "a", Value: "Some Title"}),
			marc.NewField("910", " ", " ", marc.Subfield{Code: "a", Value: "BL"}),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemNYPL)
	bib.Vendor = &bibs.VendorInfo{
		Name:        "BT SERIES",
		Matchpoints: bibs.Matchpoints{Primary: bibs.MatchpointISBN},
	}

	config := batch.Config{
		System:     bibs.SystemNYPL,
		Workflow:   bibs.WorkflowCataloging,
		Collection: bibs.CollectionBranch,
	}
	processor, err := batch.NewProcessor(config, &stubSource{}, "")
	require.NoError(t, err)

	// The 091 cannot be rebuilt into subfields without drifting from the
	// original string, which is a batch-fatal integrity failure.
	outcomes, _, err := processor.Process(context.Background(), []*bibs.Bib{bib})
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	require.Len(t, outcomes, 1)
	batches := batch.Dedupe(outcomes)
	assert.Empty(t, batches.New)
	assert.Empty(t, batches.Deduped)
}

func TestNewProcessorRequiresTemplateForOrderWorkflows(t *testing.T) {
	config := selConfig()
	config.Template = nil
	_, err := batch.NewProcessor(config, &stubSource{}, "")
	assert.True(t, errors.IsPrecondition(err))
}

func outcomeFor(bib *bibs.Bib, action match.Action) batch.Outcome {
	return batch.Outcome{Bib: bib, Resolution: match.Resolution{Action: action}}
}

func TestDedupeSplitsByAction(t *testing.T) {
	attach := newBPLBib("on100", "9780000000001", "34444000000001")
	insert := newBPLBib("on200", "9780000000002", "34444000000002")

	batches := batch.Dedupe([]batch.Outcome{
		outcomeFor(attach, match.ActionAttach),
		outcomeFor(insert, match.ActionInsert),
	})
	require.Len(t, batches.Dup, 1)
	require.Len(t, batches.New, 1)
	require.Len(t, batches.Deduped, 1)
	assert.Same(t, insert, batches.Deduped[0])
}

func TestDedupeExcludesErroredOutcomes(t *testing.T) {
	good := newBPLBib("on100", "9780000000001", "34444000000001")
	bad := newBPLBib("on200", "9780000000002", "34444000000002")

	batches := batch.Dedupe([]batch.Outcome{
		outcomeFor(good, match.ActionInsert),
		{Bib: bad, Err: errors.New("lookup failed")},
	})
	assert.Empty(t, batches.Dup)
	require.Len(t, batches.New, 1)
	require.Len(t, batches.Deduped, 1)
	assert.Same(t, good, batches.Deduped[0])
}

func TestDedupeMergesItemFields(t *testing.T) {
	first := newBPLBib("on999", "9780000000001", "34444000000001")
	second := newBPLBib("on999", "9780000000001", "34444000000002")
	third := newBPLBib("on300", "9780000000003", "34444000000003")

	batches := batch.Dedupe([]batch.Outcome{
		outcomeFor(first, match.ActionInsert),
		outcomeFor(second, match.ActionOverlay),
		outcomeFor(third, match.ActionInsert),
	})
	require.Len(t, batches.New, 3)
	require.Len(t, batches.Deduped, 2)

	// The first on999 record absorbed the second's item field.
	merged := batches.Deduped[0]
	assert.Equal(t, "on999", merged.ControlNumber)
	items := merged.Record.ItemFields("960", " ")
	require.Len(t, items, 2)
	assert.ElementsMatch(t,
		[]string{"34444000000001", "34444000000002"},
		[]string{items[0].Get("i"), items[1].Get("i")},
	)

	// The non-duplicate passed through exactly once.
	assert.Same(t, third, batches.Deduped[1])
}

func TestDedupeDeterministicBase(t *testing.T) {
	// Run twice with the same input order: the base record is stable.
	for run := 0; run < 2; run++ {
		first := newBPLBib("on999", "9780000000001", "34444000000001")
		second := newBPLBib("on999", "9780000000001", "34444000000002")
		batches := batch.Dedupe([]batch.Outcome{
			outcomeFor(first, match.ActionInsert),
			outcomeFor(second, match.ActionInsert),
		})
		require.Len(t, batches.Deduped, 1)
		assert.Same(t, first, batches.Deduped[0])
	}
}

func TestDedupeNoNewRecordsReturnsEarly(t *testing.T) {
	attach := newBPLBib("on100", "9780000000001", "34444000000001")
	batches := batch.Dedupe([]batch.Outcome{outcomeFor(attach, match.ActionAttach)})
	assert.Len(t, batches.Dup, 1)
	assert.Empty(t, batches.New)
	assert.Empty(t, batches.Deduped)
}

func TestValidateBarcodes(t *testing.T) {
	first := newBPLBib("on100", "9780000000001", "34444000000001")
	second := newBPLBib("on200", "9780000000002", "34444000000002")
	batches := batch.Batches{Dup: []*bibs.Bib{first}, Deduped: []*bibs.Bib{second}}

	missing, ok := batch.ValidateBarcodes(batches, []string{"34444000000001", "34444000000002"})
	assert.True(t, ok)
	assert.Empty(t, missing)

	missing, ok = batch.ValidateBarcodes(batches, []string{"34444000000001", "34444000000002", "34444000000009"})
	assert.False(t, ok)
	assert.Equal(t, []string{"34444000000009"}, missing)
}

func TestCollectBarcodes(t *testing.T) {
	records := []*bibs.Bib{
		newBPLBib("on100", "9780000000001", "34444000000001"),
		newBPLBib("on200", "9780000000002", "34444000000002"),
	}
	barcodes, err := batch.CollectBarcodes(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"34444000000001", "34444000000002"}, barcodes)
}
