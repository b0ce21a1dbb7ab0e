package bibs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/marc"
)

func bplRecord() *marc.Record {
	return &marc.Record{
		Leader: "00000nam a2200000 a 4500",
		Fields: []marc.Field{
			marc.NewControlField("001", "on1234567890"),
			marc.NewControlField("003", "OCoLC"),
			marc.NewControlField("005", "20240301120000.0"),
			marc.NewField("020", " ", " ", marc.Subfield{Code: "a", Value: "9780316458759 (pbk.)"}),
			marc.NewField("035", " ", " ", marc.Subfield{Code: "a", Value: "(OCoLC)1234567890"}),
			marc.NewField("099", " ", " ",
				marc.Subfield{Code: "a", Value: "FIC"},
				marc.Subfield{Code: "a", Value: "COATES"},
			),
			marc.NewField("245", "1", "0", marc.Subfield{Code: "a", Value: "The water dancer"}),
			marc.NewField("907", " ", " ", marc.Subfield{Code: "a", Value: ".b123456789"}),
			marc.NewField("960", " ", " ",
				marc.Subfield{Code: "i", Value: "34444987654321"},
				marc.Subfield{Code: "o", Value: "2"},
				marc.Subfield{Code: "s", Value: "14.99"},
				marc.Subfield{Code: "t", Value: "41afc"},
				marc.Subfield{Code: "t", Value: "50afc"},
				marc.Subfield{Code: "u", Value: "lease"},
				marc.Subfield{Code: "v", Value: "btlea"},
			),
			marc.NewField("961", " ", " ",
				marc.Subfield{Code: "h", Value: "e,bio"},
				marc.Subfield{Code: "i", Value: "9780316458759"},
			),
		},
	}
}

func TestFromRecordBPL(t *testing.T) {
	bib := bibs.FromRecord(bplRecord(), bibs.SystemBPL)

	assert.Equal(t, "b123456789", bib.BibID)
	assert.Equal(t, "on1234567890", bib.ControlNumber)
	assert.Equal(t, "The water dancer", bib.Title)
	assert.Equal(t, "9780316458759", bib.ISBN)
	assert.Equal(t, []string{"1234567890", "1234567890"}, bib.OCLCNumbers)
	assert.Equal(t, "FIC COATES", bib.BranchCallNumber)
	assert.Equal(t, bibs.CollectionNone, bib.Collection)
	assert.Equal(t, []string{"34444987654321"}, bib.Barcodes)

	require.Len(t, bib.Orders, 1)
	order := bib.Orders[0]
	assert.Equal(t, "2", order.Copies)
	assert.Equal(t, []string{"41afc", "50afc"}, order.Locations)
	assert.Equal(t, []string{"41", "50"}, order.Branches)
	assert.Equal(t, []string{"fc", "fc"}, order.Shelves)
	assert.Equal(t, "lease", order.Fund)
	assert.Equal(t, "e,bio", order.VendorNotes)
	assert.Equal(t, "9780316458759", order.VendorTitleNo)
}

func TestFromRecordNYPLCollection(t *testing.T) {
	record := &marc.Record{
		Fields: []marc.Field{
			marc.NewControlField("001", "1234"),
			marc.NewField("091", " ", " ", marc.Subfield{Code: "a", Value: "FIC COATES"}),
			marc.NewField("852", "8", " ", marc.Subfield{Code: "h", Value: "ReCAP 24-100"}),
			marc.NewField("910", " ", " ", marc.Subfield{Code: "a", Value: "BL"}),
			marc.NewField("910", " ", " ", marc.Subfield{Code: "a", Value: "RL"}),
			marc.NewField("945", " ", " ", marc.Subfield{Code: "a", Value: ".b98765432x"}),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemNYPL)

	assert.Equal(t, bibs.CollectionMixed, bib.Collection)
	assert.Equal(t, "b98765432x", bib.BibID)
	assert.Equal(t, "FIC COATES", bib.BranchCallNumber)
	assert.Equal(t, []string{"ReCAP 24-100"}, bib.ResearchCallNumber)
}

func TestMatchpointValue(t *testing.T) {
	bib := bibs.FromRecord(bplRecord(), bibs.SystemBPL)

	assert.Equal(t, "9780316458759", bib.MatchpointValue(bibs.MatchpointISBN))
	assert.Equal(t, "1234567890", bib.MatchpointValue(bibs.MatchpointOCLC))
	assert.Equal(t, "b123456789", bib.MatchpointValue(bibs.MatchpointBibID))
	assert.Equal(t, "", bib.MatchpointValue(bibs.MatchpointUPC))
	assert.Equal(t, "", bib.MatchpointValue(bibs.MatchpointISSN))
}

func TestUpdateTime(t *testing.T) {
	bib := bibs.FromRecord(bplRecord(), bibs.SystemBPL)

	got, ok := bib.UpdateTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got)

	bib.UpdateDate = ""
	_, ok = bib.UpdateTime()
	assert.False(t, ok)

	bib.SetUpdateTime(time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC))
	assert.Equal(t, "20250615083000.0", bib.UpdateDate)
}

func TestApplyTemplateOverlay(t *testing.T) {
	bib := bibs.FromRecord(bplRecord(), bibs.SystemBPL)
	template := &bibs.Template{
		Name:  "midwest dvd",
		Agent: "selector",
		Fund:  "dvd",
		Lang:  "eng",
		Matchpoints: bibs.Matchpoints{
			Primary: bibs.MatchpointUPC,
		},
	}

	bib.ApplyTemplate(template)
	assert.Equal(t, "dvd", bib.Orders[0].Fund)
	assert.Equal(t, "eng", bib.Orders[0].Lang)
	// Fields the template leaves empty keep the record's values.
	assert.Equal(t, "btlea", bib.Orders[0].VendorCode)

	// Applying the same template twice changes nothing further.
	before := bib.Orders[0]
	bib.ApplyTemplate(template)
	assert.Equal(t, before, bib.Orders[0])
}

func TestTemplateValidate(t *testing.T) {
	template := &bibs.Template{Name: "t", Agent: "a"}
	assert.Error(t, template.Validate())

	template.Matchpoints.Primary = bibs.MatchpointISBN
	assert.NoError(t, template.Validate())

	template.Matchpoints.Secondary = "call_number"
	assert.Error(t, template.Validate())
}

func TestOrderFieldsRoundTrip(t *testing.T) {
	bib := bibs.FromRecord(bplRecord(), bibs.SystemBPL)
	fields := bib.Orders[0].Fields()

	require.Len(t, fields, 2)
	assert.Equal(t, "960", fields[0].Tag)
	assert.Equal(t, []string{"41afc", "50afc"}, fields[0].GetAll("t"))
	assert.Equal(t, "961", fields[1].Tag)
	assert.Equal(t, "e,bio", fields[1].Get("h"))
}

func TestParsers(t *testing.T) {
	sys, err := bibs.ParseSystem("NYPL")
	require.NoError(t, err)
	assert.Equal(t, bibs.SystemNYPL, sys)

	_, err = bibs.ParseSystem("queens")
	assert.Error(t, err)

	coll, err := bibs.ParseCollection("bl")
	require.NoError(t, err)
	assert.Equal(t, bibs.CollectionBranch, coll)

	coll, err = bibs.ParseCollection("")
	require.NoError(t, err)
	assert.Equal(t, bibs.CollectionNone, coll)

	wf, err := bibs.ParseWorkflow("CAT")
	require.NoError(t, err)
	assert.Equal(t, bibs.WorkflowCataloging, wf)

	_, err = bibs.ParseMatchpoint("title")
	assert.Error(t, err)
}

func TestMatchpointsOrdered(t *testing.T) {
	m := bibs.Matchpoints{Primary: bibs.MatchpointISBN, Tertiary: bibs.MatchpointOCLC}
	assert.Equal(t, []bibs.Matchpoint{bibs.MatchpointISBN, bibs.MatchpointOCLC}, m.Ordered())
	assert.False(t, m.Empty())
	assert.True(t, bibs.Matchpoints{}.Empty())
}
