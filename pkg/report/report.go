// Package report turns processing outcomes into operator-facing reports:
// a per-record analysis, a duplicate report, a call number mismatch report,
// and a per-vendor action breakdown.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/bookops/overload/pkg/batch"
	"github.com/bookops/overload/pkg/match"
)

// Row is the analysis of one processed record.
type Row struct {
	Vendor           string
	ResourceID       string
	Action           match.Action
	TargetBibID      string
	TargetTitle      string
	CallNumber       string
	TargetCallNumber string
	CallNumberMatch  bool
	UpdatedByVendor  bool
	Duplicates       []string
	Mixed            []string
	Other            []string
	Err              error
}

// FromOutcomes flattens processing outcomes into report rows, one per
// record in batch order.
func FromOutcomes(outcomes []batch.Outcome) []Row {
	rows := make([]Row, 0, len(outcomes))
	for _, outcome := range outcomes {
		r := outcome.Resolution
		rows = append(rows, Row{
			Vendor:           outcome.Bib.VendorName(),
			ResourceID:       r.ResourceID,
			Action:           r.Action,
			TargetBibID:      r.TargetBibID,
			TargetTitle:      r.TargetTitle,
			CallNumber:       r.InputCallNumber,
			TargetCallNumber: r.TargetCallNumber,
			CallNumberMatch:  r.CallNumberMatch,
			UpdatedByVendor:  r.UpdatedByVendor,
			Duplicates:       r.Duplicates,
			Mixed:            candidateIDs(r.Mixed),
			Other:            candidateIDs(r.Other),
			Err:              outcome.Err,
		})
	}
	return rows
}

func candidateIDs(candidates []match.Candidate) []string {
	var ids []string
	for _, c := range candidates {
		ids = append(ids, c.BibID)
	}
	return ids
}

// DuplicateReport keeps the rows where Sierra holds duplicate, mixed, or
// off-collection records for the title, stamped with the report time.
type DuplicateReport struct {
	Date time.Time
	Rows []Row
}

// Duplicates builds the duplicate report from analysis rows.
func Duplicates(rows []Row, now time.Time) DuplicateReport {
	out := DuplicateReport{Date: now}
	for _, row := range rows {
		if len(row.Duplicates) > 0 || len(row.Mixed) > 0 || len(row.Other) > 0 {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// CallNumberMismatches keeps the rows whose incoming call number did not
// match the target record's.
func CallNumberMismatches(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if !row.CallNumberMatch {
			out = append(out, row)
		}
	}
	return out
}

// VendorTally is one vendor's action counts.
type VendorTally struct {
	Vendor string
	Attach int
	Insert int
	Update int
	Total  int
}

// VendorBreakdown tallies actions per vendor, sorted by vendor name.
func VendorBreakdown(rows []Row) []VendorTally {
	byVendor := map[string]*VendorTally{}
	for _, row := range rows {
		tally, ok := byVendor[row.Vendor]
		if !ok {
			tally = &VendorTally{Vendor: row.Vendor}
			byVendor[row.Vendor] = tally
		}
		switch row.Action {
		case match.ActionAttach:
			tally.Attach++
		case match.ActionInsert:
			tally.Insert++
		case match.ActionOverlay:
			tally.Update++
		}
		tally.Total = tally.Attach + tally.Insert + tally.Update
	}

	out := make([]VendorTally, 0, len(byVendor))
	for _, tally := range byVendor {
		out = append(out, *tally)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vendor < out[j].Vendor })
	return out
}

// Summary describes a finished batch in one line per output file.
type Summary struct {
	Processed int
	Attach    int
	New       int
	Deduped   int
	Errors    int
	Missing   []string
}

// Summarize builds a Summary from outcomes and the dedupe split.
func Summarize(outcomes []batch.Outcome, batches batch.Batches, missing []string) Summary {
	s := Summary{
		Processed: len(outcomes),
		Attach:    len(batches.Dup),
		New:       len(batches.New),
		Deduped:   len(batches.Deduped),
		Missing:   missing,
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			s.Errors++
		}
	}
	return s
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
