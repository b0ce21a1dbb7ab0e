// Package match finds the best Sierra match for incoming bib records.
// A Matcher queries a CandidateSource for records sharing an identifier
// with the incoming record, and an Analyzer decides what to do with the
// candidates it finds: attach to an existing bib, overlay it, or insert
// the incoming record as new.
package match

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/logging"
)

// CatSource values describe who cataloged a candidate record.
const (
	CatSourceInhouse = "inhouse"
	CatSourceVendor  = "vendor"
)

// Candidate is a record retrieved from a Sierra backend during matching.
type Candidate struct {
	BibID              string
	System             bibs.System
	Title              string
	Collection         bibs.Collection
	ControlNumber      string
	CatSource          string
	BranchCallNumber   string
	ResearchCallNumber []string
	Barcodes           []string
	ISBNs              []string
	OCLCNumbers        []string
	UPCs               []string
	UpdatedAt          time.Time
}

// CandidateSource retrieves candidate records for an identifier value.
// Implementations wrap the BPL Solr and NYPL Platform clients.
type CandidateSource interface {
	Lookup(ctx context.Context, matchpoint bibs.Matchpoint, value string) ([]Candidate, error)
}

// bibIDSortKey converts a Sierra bib ID into its numeric part for ordering,
// e.g. ".b123456789" and "b123456789" both yield 123456789. IDs without a
// usable numeric part sort first.
func bibIDSortKey(id string) int {
	trimmed := strings.Trim(id, ".b")
	if i := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		trimmed = trimmed[:i]
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		logging.Debug().Str("bib_id", id).Msg("bib id has no numeric part, ordering it first")
		return 0
	}
	return n
}
