package batch

import (
	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/logging"
	"github.com/bookops/overload/pkg/match"
)

// Batches splits processed records into the output files they belong to.
// Dup holds records attaching to existing bibs, New the records loading as
// new bibs before deduplication, and Deduped the new records with same-title
// duplicates merged into one record each.
type Batches struct {
	Dup     []*bibs.Bib
	New     []*bibs.Bib
	Deduped []*bibs.Bib
}

// Dedupe splits outcomes by action and merges new records sharing a control
// number. The first record of each duplicate group, in input order, becomes
// the base; item fields from the rest are folded into it so no items are
// lost when the extra bibs are dropped. Errored outcomes are excluded from
// every batch: a record without a resolution belongs in no output file.
func Dedupe(outcomes []Outcome) Batches {
	var batches Batches
	for _, outcome := range outcomes {
		switch {
		case outcome.Err != nil:
			continue
		case outcome.Resolution.Action == match.ActionAttach:
			batches.Dup = append(batches.Dup, outcome.Bib)
		default:
			batches.New = append(batches.New, outcome.Bib)
		}
	}
	if len(batches.New) == 0 {
		return batches
	}

	counts := map[string]int{}
	for _, record := range batches.New {
		counts[record.ControlNumber]++
	}
	hasDupes := false
	for _, count := range counts {
		if count > 1 {
			hasDupes = true
			break
		}
	}
	if !hasDupes {
		batches.Deduped = batches.New
		return batches
	}
	logging.Debug().Int("records", len(batches.New)).Msg("merging duplicate new records")

	merged := map[string]bool{}
	for _, record := range batches.New {
		if counts[record.ControlNumber] <= 1 {
			batches.Deduped = append(batches.Deduped, record)
			continue
		}
		if merged[record.ControlNumber] {
			continue
		}
		var group []*bibs.Bib
		for _, other := range batches.New {
			if other.ControlNumber == record.ControlNumber {
				group = append(group, other)
			}
		}
		batches.Deduped = append(batches.Deduped, mergeGroup(group))
		merged[record.ControlNumber] = true
	}
	return batches
}

// mergeGroup folds the item fields of every duplicate into the group's
// first record.
func mergeGroup(group []*bibs.Bib) *bibs.Bib {
	base := group[0]
	tag, ind2 := mergeItemTag(base)
	for _, dupe := range group[1:] {
		for _, item := range dupe.Record.GetFields(tag) {
			if item.Ind1 == " " && item.Ind2 == ind2 {
				base.Record.AddOrderedField(*item)
			}
		}
	}
	return base
}

// mergeItemTag returns the tag and second indicator of mergeable item
// fields. BPL items live in 960 unless the record is an OverDrive title,
// whose items use the NYPL-style 949.
func mergeItemTag(bib *bibs.Bib) (string, string) {
	if bib.System == bibs.SystemBPL && !hasOverDriveNumber(bib) {
		return "960", " "
	}
	return "949", "1"
}

// hasOverDriveNumber reports whether the record carries an OverDrive
// reserve ID in its 037.
func hasOverDriveNumber(bib *bibs.Bib) bool {
	for _, f := range bib.Record.GetFields("037") {
		if f.Get("a") != "" && f.Get("b") == "OverDrive, Inc." {
			return true
		}
	}
	return false
}
