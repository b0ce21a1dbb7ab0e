package update

import (
	"strings"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/marc"
)

// btSeriesVendor marks records whose flat 091 call numbers get rebuilt into
// subfielded form on the way out.
const btSeriesVendor = "BT SERIES"

// rewriteSeriesCallNumber splits a BT SERIES record's flat 091 call number
// into prefix, format, classification, and cutter subfields. Only NYPL
// branch cataloging records from that vendor qualify. The rebuilt field must
// reproduce the original call number exactly; any drift fails the record
// rather than risking a silently mangled call number.
func rewriteSeriesCallNumber(record *marc.Record, bib *bibs.Bib, workflow bibs.Workflow) error {
	if bib.Collection != bibs.CollectionBranch ||
		bib.VendorName() != btSeriesVendor ||
		workflow != bibs.WorkflowCataloging ||
		record.Get("091") == nil {
		return nil
	}

	callno := record.Get("091").Value()
	var subfields []marc.Subfield
	pos := 0

	// language and audience prefix
	if strings.HasPrefix(callno, "J SPA ") {
		subfields = append(subfields, marc.Subfield{Code: "p", Value: "J SPA"})
	} else if strings.HasPrefix(callno, "J ") {
		subfields = append(subfields, marc.Subfield{Code: "p", Value: "J"})
	}

	// format prefix
	if strings.Contains(callno, "GRAPHIC ") {
		subfields = append(subfields, marc.Subfield{Code: "f", Value: "GRAPHIC"})
	} else if strings.Contains(callno, "HOLIDAY ") {
		subfields = append(subfields, marc.Subfield{Code: "f", Value: "HOLIDAY"})
	} else if strings.Contains(callno, "YR ") {
		subfields = append(subfields, marc.Subfield{Code: "f", Value: "YR"})
	}

	// classification
	switch {
	case strings.Contains(callno, "GN FIC "):
		pos = strings.Index(callno, "GN FIC ") + 7
		subfields = append(subfields, marc.Subfield{Code: "a", Value: "GN FIC"})
	case strings.Contains(callno, "FIC "):
		pos = strings.Index(callno, "FIC ") + 4
		subfields = append(subfields, marc.Subfield{Code: "a", Value: "FIC"})
	case strings.Contains(callno, "PIC "):
		pos = strings.Index(callno, "PIC ") + 4
		subfields = append(subfields, marc.Subfield{Code: "a", Value: "PIC"})
	case strings.HasPrefix(callno, "J E "):
		pos = strings.Index(callno, "J E ") + 4
		subfields = append(subfields, marc.Subfield{Code: "a", Value: "E"})
	case strings.HasPrefix(callno, "J SPA E "):
		pos = strings.Index(callno, "J SPA E ") + 8
		subfields = append(subfields, marc.Subfield{Code: "a", Value: "E"})
	}

	// cutter
	subfields = append(subfields, marc.Subfield{Code: "c", Value: callno[pos:]})

	field := marc.NewField("091", " ", " ", subfields...)
	if constructed := field.Value(); constructed != callno {
		return &errors.CallNumberError{Original: callno, Constructed: constructed}
	}
	record.RemoveFields("091")
	record.AddOrderedField(field)
	return nil
}
