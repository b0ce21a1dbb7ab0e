package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteVendorBreakdown renders the per-vendor action tallies as a table.
func WriteVendorBreakdown(w io.Writer, tallies []VendorTally) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Vendor", "Attach", "Insert", "Update", "Total"})

	totals := VendorTally{Vendor: "TOTAL"}
	for _, tally := range tallies {
		t.AppendRow(table.Row{tally.Vendor, tally.Attach, tally.Insert, tally.Update, tally.Total})
		totals.Attach += tally.Attach
		totals.Insert += tally.Insert
		totals.Update += tally.Update
		totals.Total += tally.Total
	}
	t.AppendFooter(table.Row{totals.Vendor, totals.Attach, totals.Insert, totals.Update, totals.Total})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	t.Render()
}

// WriteDuplicateReport renders the rows with duplicate, mixed, or
// off-collection Sierra records.
func WriteDuplicateReport(w io.Writer, report DuplicateReport) {
	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No duplicate records found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Duplicate report %s", report.Date.Format("2006-01-02"))
	t.AppendHeader(table.Row{"Vendor", "Resource ID", "Target Bib ID", "Duplicates", "Mixed", "Other"})

	for _, row := range report.Rows {
		t.AppendRow(table.Row{
			row.Vendor,
			row.ResourceID,
			row.TargetBibID,
			joinIDs(row.Duplicates),
			joinIDs(row.Mixed),
			joinIDs(row.Other),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 40},
		{Number: 5, WidthMax: 40},
		{Number: 6, WidthMax: 40},
	})

	t.Render()
}

// WriteCallNumberReport renders the rows whose incoming call number did not
// match the target record's.
func WriteCallNumberReport(w io.Writer, rows []Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No call number mismatches found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Vendor", "Resource ID", "Target Bib ID", "Incoming Call No", "Target Call No", "Target Title"})

	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Vendor,
			row.ResourceID,
			row.TargetBibID,
			row.CallNumber,
			row.TargetCallNumber,
			row.TargetTitle,
		})
	}

	t.Render()
}

// WriteSummary renders the batch summary as a short key/value table.
func WriteSummary(w io.Writer, summary Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	t.AppendRow(table.Row{"Records processed", summary.Processed})
	t.AppendRow(table.Row{"Attach (DUP file)", summary.Attach})
	t.AppendRow(table.Row{"New records", summary.New})
	t.AppendRow(table.Row{"After dedupe (NEW file)", summary.Deduped})
	t.AppendRow(table.Row{"Errors", summary.Errors})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})

	t.Render()

	if len(summary.Missing) > 0 {
		fmt.Fprintf(w, "WARNING: %d barcodes missing from output: %s\n",
			len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
}
