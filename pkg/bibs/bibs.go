// Package bibs defines the domain model for bibliographic records and their
// associated Sierra order data. A Bib wraps a parsed MARC record together
// with the identifiers, call numbers, and orders extracted from it.
package bibs

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/marc"
)

// System identifies the library system a record belongs to.
type System string

const (
	SystemNYPL System = "nypl"
	SystemBPL  System = "bpl"
)

// ParseSystem converts a string into a System.
func ParseSystem(s string) (System, error) {
	switch System(strings.ToLower(s)) {
	case SystemNYPL:
		return SystemNYPL, nil
	case SystemBPL:
		return SystemBPL, nil
	}
	return "", fmt.Errorf("%w: unknown library system %q", errors.ErrInvalidInput, s)
}

// Collection identifies the collection a record belongs to.
type Collection string

const (
	CollectionBranch   Collection = "BL"
	CollectionResearch Collection = "RL"
	CollectionMixed    Collection = "MIXED"
	CollectionNone     Collection = "NONE"
)

// ParseCollection converts a string into a Collection.
func ParseCollection(s string) (Collection, error) {
	switch Collection(strings.ToUpper(s)) {
	case CollectionBranch:
		return CollectionBranch, nil
	case CollectionResearch:
		return CollectionResearch, nil
	case CollectionMixed:
		return CollectionMixed, nil
	case CollectionNone, "":
		return CollectionNone, nil
	}
	return "", fmt.Errorf("%w: unknown collection %q", errors.ErrInvalidInput, s)
}

// Workflow identifies the processing workflow a batch of records belongs to.
type Workflow string

const (
	WorkflowCataloging   Workflow = "cat"
	WorkflowAcquisitions Workflow = "acq"
	WorkflowSelection    Workflow = "sel"
)

// ParseWorkflow converts a string into a Workflow.
func ParseWorkflow(s string) (Workflow, error) {
	switch Workflow(strings.ToLower(s)) {
	case WorkflowCataloging:
		return WorkflowCataloging, nil
	case WorkflowAcquisitions:
		return WorkflowAcquisitions, nil
	case WorkflowSelection:
		return WorkflowSelection, nil
	}
	return "", fmt.Errorf("%w: unknown workflow %q", errors.ErrInvalidInput, s)
}

// Matchpoint names an identifier used to look up candidate records in Sierra.
type Matchpoint string

const (
	MatchpointISBN  Matchpoint = "isbn"
	MatchpointOCLC  Matchpoint = "oclc_number"
	MatchpointBibID Matchpoint = "bib_id"
	MatchpointUPC   Matchpoint = "upc"
	MatchpointISSN  Matchpoint = "issn"
)

// ParseMatchpoint converts a string into a Matchpoint.
func ParseMatchpoint(s string) (Matchpoint, error) {
	switch Matchpoint(strings.ToLower(s)) {
	case MatchpointISBN, MatchpointOCLC, MatchpointBibID, MatchpointUPC, MatchpointISSN:
		return Matchpoint(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnsupportedMatchpoint, s)
}

// Matchpoints is an ordered set of up to three matchpoints. Primary is
// always tried first.
type Matchpoints struct {
	Primary   Matchpoint
	Secondary Matchpoint
	Tertiary  Matchpoint
}

// Ordered returns the non-empty matchpoints in priority order.
func (m Matchpoints) Ordered() []Matchpoint {
	var out []Matchpoint
	for _, mp := range []Matchpoint{m.Primary, m.Secondary, m.Tertiary} {
		if mp != "" {
			out = append(out, mp)
		}
	}
	return out
}

// Empty reports whether no matchpoints are set.
func (m Matchpoints) Empty() bool {
	return m.Primary == "" && m.Secondary == "" && m.Tertiary == ""
}

// updateDateLayout is the MARC 005 timestamp layout.
const updateDateLayout = "20060102150405.0"

// Bib is a bibliographic record with the identifiers and order data the
// matching and update pipeline works on.
type Bib struct {
	Record     *marc.Record
	System     System
	Collection Collection

	BibID              string
	ControlNumber      string
	Title              string
	ISBN               string
	OCLCNumbers        []string
	UPC                string
	ISSN               string
	BranchCallNumber   string
	ResearchCallNumber []string
	Barcodes           []string
	UpdateDate         string

	Orders []Order
	Vendor *VendorInfo
}

// ItemFieldTag returns the MARC tag holding item data for the system.
func (s System) ItemFieldTag() string {
	if s == SystemBPL {
		return "960"
	}
	return "949"
}

// BibIDTag returns the MARC tag holding the Sierra bib ID for the system.
func (s System) BibIDTag() string {
	if s == SystemBPL {
		return "907"
	}
	return "945"
}

// BranchCallNumberTag returns the MARC tag holding the branch call number.
func (s System) BranchCallNumberTag() string {
	if s == SystemBPL {
		return "099"
	}
	return "091"
}

// FromRecord builds a Bib by extracting identifiers, call numbers, orders,
// and item data from a parsed MARC record.
func FromRecord(record *marc.Record, system System) *Bib {
	bib := &Bib{
		Record:        record,
		System:        system,
		Collection:    CollectionNone,
		ControlNumber: record.ControlNumber(),
	}

	if f := record.Get("245"); f != nil {
		bib.Title = f.Value()
	}
	if f := record.Get(system.BibIDTag()); f != nil {
		bib.BibID = normalizeBibID(f.Get("a"))
	}
	if f := record.Get("020"); f != nil {
		bib.ISBN = normalizeISBN(f.Get("a"))
	}
	if f := record.Get("024"); f != nil {
		bib.UPC = f.Get("a")
	}
	if f := record.Get("022"); f != nil {
		bib.ISSN = f.Get("a")
	}
	bib.OCLCNumbers = extractOCLCNumbers(record)
	if f := record.Get(system.BranchCallNumberTag()); f != nil {
		bib.BranchCallNumber = f.Value()
	}

	if system == SystemNYPL {
		for _, f := range record.GetFields("852") {
			if f.Ind1 == "8" {
				bib.ResearchCallNumber = append(bib.ResearchCallNumber, f.Value())
			}
		}
		bib.Collection = collectionFrom910(record)
	}

	if f := record.Get("005"); f != nil {
		bib.UpdateDate = f.Data
	}
	bib.Barcodes = record.Barcodes(system.ItemFieldTag())
	bib.Orders = ordersFromRecord(record)
	return bib
}

// MatchpointValue returns the record's value for the given matchpoint, or ""
// when the record does not carry that identifier.
func (b *Bib) MatchpointValue(mp Matchpoint) string {
	switch mp {
	case MatchpointISBN:
		return b.ISBN
	case MatchpointOCLC:
		if len(b.OCLCNumbers) > 0 {
			return b.OCLCNumbers[0]
		}
		return ""
	case MatchpointBibID:
		return b.BibID
	case MatchpointUPC:
		return b.UPC
	case MatchpointISSN:
		return b.ISSN
	}
	return ""
}

// UpdateTime parses the record's 005 timestamp. The zero time and false are
// returned when the record carries no usable update date.
func (b *Bib) UpdateTime() (time.Time, bool) {
	if b.UpdateDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(updateDateLayout, b.UpdateDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetUpdateTime replaces the record's update date with a 005-formatted
// timestamp.
func (b *Bib) SetUpdateTime(t time.Time) {
	b.UpdateDate = t.Format(updateDateLayout)
}

// ApplyTemplate applies template data to every order on the record.
func (b *Bib) ApplyTemplate(t *Template) {
	for i := range b.Orders {
		b.Orders[i].ApplyTemplate(t)
	}
}

// VendorName returns the identified vendor name, or "" when the record has
// not been through vendor identification.
func (b *Bib) VendorName() string {
	if b.Vendor == nil {
		return ""
	}
	return b.Vendor.Name
}

// normalizeBibID strips the Sierra display prefix from a bib ID, turning
// ".b123456789" into "b123456789".
func normalizeBibID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), ".")
}

// normalizeISBN keeps the leading ISBN token of a 020 subfield, dropping
// qualifiers like "(pbk.)".
func normalizeISBN(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// extractOCLCNumbers pulls OCLC numbers from the 001 and 035 fields.
func extractOCLCNumbers(record *marc.Record) []string {
	var numbers []string
	ctrl := record.ControlNumber()
	if digits := oclcDigits(ctrl); digits != "" {
		numbers = append(numbers, digits)
	}
	for _, f := range record.GetFields("035") {
		for _, value := range f.GetAll("a") {
			if strings.HasPrefix(value, "(OCoLC)") {
				if digits := strings.TrimLeft(strings.TrimPrefix(value, "(OCoLC)"), "ocmn"); digits != "" {
					numbers = append(numbers, digits)
				}
			}
		}
	}
	return numbers
}

// oclcDigits strips an OCLC control number prefix (ocm/ocn/on) and returns
// the numeric part, or "" when the value is not an OCLC number.
func oclcDigits(value string) string {
	for _, prefix := range []string{"ocm", "ocn", "on"} {
		if strings.HasPrefix(value, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(value, prefix))
		}
	}
	return ""
}

// collectionFrom910 derives the collection from a record's 910 fields.
// Records carrying both branch and research codes are MIXED.
func collectionFrom910(record *marc.Record) Collection {
	seen := map[Collection]bool{}
	for _, f := range record.GetFields("910") {
		for _, value := range f.GetAll("a") {
			switch Collection(strings.ToUpper(strings.TrimSpace(value))) {
			case CollectionBranch:
				seen[CollectionBranch] = true
			case CollectionResearch:
				seen[CollectionResearch] = true
			}
		}
	}
	switch {
	case seen[CollectionBranch] && seen[CollectionResearch]:
		return CollectionMixed
	case seen[CollectionBranch]:
		return CollectionBranch
	case seen[CollectionResearch]:
		return CollectionResearch
	}
	return CollectionNone
}
