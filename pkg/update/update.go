// Package update rewrites MARC records after match analysis: order data,
// bib IDs, collection codes, command tags, and call numbers are brought in
// line with the decided cataloging action before serialization.
package update

import (
	"strings"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/marc"
)

// Engine applies the field update rules for one batch configuration.
type Engine struct {
	system          bibs.System
	workflow        bibs.Workflow
	collection      bibs.Collection
	defaultLocation string
}

// NewEngine creates an update engine. defaultLocation is the Sierra location
// code stamped on selection records for the system and collection; empty
// means no default location applies.
func NewEngine(system bibs.System, workflow bibs.Workflow, collection bibs.Collection, defaultLocation string) *Engine {
	return &Engine{
		system:          system,
		workflow:        workflow,
		collection:      collection,
		defaultLocation: defaultLocation,
	}
}

// Apply rewrites the bib's MARC record for output. targetBibID is the Sierra
// bib the record should load against, empty when the record is new without a
// known ID. The record's leader is always forced to UTF-8.
func (e *Engine) Apply(bib *bibs.Bib, template *bibs.Template, targetBibID string) error {
	record := bib.Record

	switch e.workflow {
	case bibs.WorkflowCataloging:
		if bib.Vendor != nil {
			addVendorFields(record, bib.Vendor.BibFields)
		}
	case bibs.WorkflowAcquisitions:
		bib.ApplyTemplate(template)
		appendOrderFields(record, bib.Orders)
	case bibs.WorkflowSelection:
		bib.ApplyTemplate(template)
		appendOrderFields(record, bib.Orders)
		if template != nil && template.Format != "" {
			addCommandTag(record, template.Format)
		}
		setDefaultLocation(record, e.defaultLocation)
	}

	setBibID(record, e.system.BibIDTag(), targetBibID)
	record.SetLeaderUTF8()

	if e.system == bibs.SystemNYPL {
		rewriteCollectionField(record, bib.Collection)
		if err := rewriteSeriesCallNumber(record, bib, e.workflow); err != nil {
			return err
		}
	}
	return nil
}

// addVendorFields injects a vendor's profile fields into the record verbatim.
func addVendorFields(record *marc.Record, fields []bibs.VendorField) {
	for _, f := range fields {
		record.AddOrderedField(marc.NewField(f.Tag, f.Ind1, f.Ind2,
			marc.Subfield{Code: f.Code, Value: f.Value}))
	}
}

// appendOrderFields renders each order back into 960/961 fields appended at
// the end of the record. Existing order fields stay in place: Sierra load
// profiles read the last occurrence.
func appendOrderFields(record *marc.Record, orders []bibs.Order) {
	for i := range orders {
		for _, f := range orders[i].Fields() {
			record.AddField(f)
		}
	}
}

// commandTagField returns the record's Sierra command tag, a 949 with blank
// indicators whose subfield a starts with "*", or nil.
func commandTagField(record *marc.Record) *marc.Field {
	for _, f := range record.GetFields("949") {
		if f.Ind1 == " " && f.Ind2 == " " && strings.HasPrefix(f.Get("a"), "*") {
			return f
		}
	}
	return nil
}

// addCommandTag adds a command tag setting the record's material format,
// unless the record already carries one.
func addCommandTag(record *marc.Record, format string) {
	if commandTagField(record) != nil {
		return
	}
	record.AddOrderedField(marc.NewField("949", " ", " ",
		marc.Subfield{Code: "a", Value: "*b2=" + format + ";"}))
}

// setDefaultLocation appends a default location to the record's command tag,
// creating the tag when missing. A command already naming a location is left
// alone.
func setDefaultLocation(record *marc.Record, location string) {
	if location == "" {
		return
	}
	if f := commandTagField(record); f != nil {
		command := strings.TrimSpace(f.Get("a"))
		if strings.Contains(command, "bn=") {
			return
		}
		value := f.Get("a")
		if strings.HasSuffix(command, ";") {
			value += "bn=" + location + ";"
		} else {
			value += ";bn=" + location + ";"
		}
		for i := range f.Subfields {
			if f.Subfields[i].Code == "a" {
				f.Subfields[i].Value = value
				break
			}
		}
		return
	}
	record.AddOrderedField(marc.NewField("949", " ", " ",
		marc.Subfield{Code: "a", Value: "*bn=" + location + ";"}))
}

// setBibID replaces the record's Sierra bib ID field with the target bib ID.
func setBibID(record *marc.Record, tag, bibID string) {
	if bibID == "" {
		return
	}
	record.RemoveFields(tag)
	record.AddOrderedField(marc.NewField(tag, " ", " ",
		marc.Subfield{Code: "a", Value: bibID}))
}

// rewriteCollectionField replaces the record's 910 with its collection code.
func rewriteCollectionField(record *marc.Record, collection bibs.Collection) {
	record.RemoveFields("910")
	if collection == bibs.CollectionNone {
		return
	}
	record.AddOrderedField(marc.NewField("910", " ", " ",
		marc.Subfield{Code: "a", Value: string(collection)}))
}
