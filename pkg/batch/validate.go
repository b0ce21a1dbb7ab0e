package batch

import (
	"sort"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/logging"
)

// ValidateBarcodes checks that every barcode collected before processing is
// still present in the output batches, and that no barcode appeared from
// nowhere. The check reports rather than fails: a batch with missing
// barcodes still ships, but the operator needs to know.
func ValidateBarcodes(batches Batches, expected []string) (missing []string, ok bool) {
	var found []string
	for _, record := range outputRecords(batches) {
		tag, ind2 := mergeItemTag(record)
		for _, item := range record.Record.GetFields(tag) {
			if item.Ind1 == " " && item.Ind2 == ind2 {
				found = append(found, item.GetAll("i")...)
			}
		}
	}

	counts := map[string]int{}
	for _, barcode := range found {
		counts[barcode]++
	}
	seen := map[string]bool{}
	for _, barcode := range expected {
		if counts[barcode] == 0 && !seen[barcode] {
			missing = append(missing, barcode)
			seen[barcode] = true
		}
		counts[barcode]--
	}

	ok = equalMultisets(expected, found)
	if !ok {
		logging.Error().
			Strs("missing_barcodes", missing).
			Msg("barcode integrity check failed")
	} else {
		logging.Debug().Int("barcodes", len(expected)).Msg("barcode integrity check passed")
	}
	return missing, ok
}

// outputRecords returns the records written to output files: the attach
// batch plus the deduped new records.
func outputRecords(batches Batches) []*bibs.Bib {
	records := make([]*bibs.Bib, 0, len(batches.Dup)+len(batches.Deduped))
	records = append(records, batches.Dup...)
	records = append(records, batches.Deduped...)
	return records
}

func equalMultisets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
