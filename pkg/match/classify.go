package match

import (
	"sort"

	"github.com/bookops/overload/pkg/bibs"
)

// Classified buckets candidates by how they relate to the incoming record.
// Matched candidates share the incoming record's collection (BPL candidates
// always match, collections being an NYPL concept); mixed candidates span
// both branch and research collections; the rest land in Other.
type Classified struct {
	Matched []Candidate
	Mixed   []Candidate
	Other   []Candidate

	InputCallNumber string
	ResourceID      string
}

// Duplicates returns the matched bib IDs when more than one candidate
// matched, meaning Sierra holds duplicate records for the title.
func (c *Classified) Duplicates() []string {
	if len(c.Matched) <= 1 {
		return nil
	}
	ids := make([]string, 0, len(c.Matched))
	for _, candidate := range c.Matched {
		ids = append(ids, candidate.BibID)
	}
	return ids
}

// Classify sorts candidates by bib ID ascending and splits them into
// matched, mixed, and other buckets relative to the incoming record.
func Classify(incoming *bibs.Bib, candidates []Candidate) *Classified {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bibIDSortKey(sorted[i].BibID) < bibIDSortKey(sorted[j].BibID)
	})

	classified := &Classified{
		InputCallNumber: inputCallNumber(incoming),
		ResourceID:      resourceID(incoming),
	}
	for _, candidate := range sorted {
		switch {
		case candidate.System == bibs.SystemBPL:
			classified.Matched = append(classified.Matched, candidate)
		case candidate.Collection == bibs.CollectionMixed:
			classified.Mixed = append(classified.Mixed, candidate)
		case candidate.Collection == incoming.Collection:
			classified.Matched = append(classified.Matched, candidate)
		default:
			classified.Other = append(classified.Other, candidate)
		}
	}
	return classified
}

// inputCallNumber picks the call number the analysis reports for the
// incoming record: the research call number for NYPL research records,
// the branch call number otherwise.
func inputCallNumber(incoming *bibs.Bib) string {
	if incoming.System == bibs.SystemNYPL && incoming.Collection == bibs.CollectionResearch {
		if len(incoming.ResearchCallNumber) > 0 {
			return incoming.ResearchCallNumber[0]
		}
		return ""
	}
	return incoming.BranchCallNumber
}

// resourceID picks the most specific identifier available for reporting.
func resourceID(incoming *bibs.Bib) string {
	switch {
	case incoming.BibID != "":
		return incoming.BibID
	case incoming.ControlNumber != "":
		return incoming.ControlNumber
	case incoming.ISBN != "":
		return incoming.ISBN
	case len(incoming.OCLCNumbers) > 0:
		return incoming.OCLCNumbers[0]
	case incoming.UPC != "":
		return incoming.UPC
	}
	return ""
}
