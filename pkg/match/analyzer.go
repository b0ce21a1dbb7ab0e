package match

import (
	"fmt"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
)

// Action is the cataloging action decided for a record.
type Action string

const (
	// ActionAttach attaches the incoming order data to an existing bib.
	ActionAttach Action = "attach"
	// ActionOverlay replaces an existing bib with the incoming record.
	ActionOverlay Action = "overlay"
	// ActionInsert loads the incoming record as a new bib.
	ActionInsert Action = "insert"
)

// Resolution is the outcome of analyzing a record's candidates.
type Resolution struct {
	Action           Action
	TargetBibID      string
	CallNumberMatch  bool
	UpdatedByVendor  bool
	Duplicates       []string
	Mixed            []Candidate
	Other            []Candidate
	InputCallNumber  string
	ResourceID       string
	TargetCallNumber string
	TargetTitle      string
}

// Analyzer decides the cataloging action for an incoming record given its
// candidates. Implementations differ per system, workflow, and collection.
type Analyzer interface {
	Resolve(incoming *bibs.Bib, candidates []Candidate) Resolution
}

// NewAnalyzer selects the analyzer for a system, workflow, and collection
// combination. Acquisitions and selection analyzers are shared across
// systems; cataloging analyzers are system-specific, NYPL's further split
// by collection.
func NewAnalyzer(system bibs.System, workflow bibs.Workflow, collection bibs.Collection) (Analyzer, error) {
	switch workflow {
	case bibs.WorkflowAcquisitions:
		return acquisitionsAnalyzer{}, nil
	case bibs.WorkflowSelection:
		return selectionAnalyzer{}, nil
	case bibs.WorkflowCataloging:
		if system == bibs.SystemBPL {
			return bplCatAnalyzer{}, nil
		}
		switch collection {
		case bibs.CollectionBranch:
			return nyplCatBranchAnalyzer{}, nil
		case bibs.CollectionResearch:
			return nyplCatResearchAnalyzer{}, nil
		}
	}
	return nil, fmt.Errorf("%w: system=%s workflow=%s collection=%s",
		errors.ErrNoAnalyzer, system, workflow, collection)
}

// determineAction decides between attaching to and overlaying a matched
// candidate. Records cataloged in house are never overlaid. A vendor record
// overlays when the incoming record carries no update date or the candidate
// is newer, and the second return value reports that vendor update.
func determineAction(incoming *bibs.Bib, candidate Candidate) (Action, bool) {
	if candidate.CatSource == CatSourceInhouse {
		return ActionAttach, false
	}
	incomingTime, ok := incoming.UpdateTime()
	if !ok || candidate.UpdatedAt.After(incomingTime) {
		return ActionOverlay, true
	}
	return ActionAttach, false
}

// resolution seeds a Resolution with the classification shared by every
// analyzer.
func resolution(classified *Classified) Resolution {
	return Resolution{
		Duplicates:      classified.Duplicates(),
		Mixed:           classified.Mixed,
		Other:           classified.Other,
		InputCallNumber: classified.InputCallNumber,
		ResourceID:      classified.ResourceID,
	}
}

func withTarget(r Resolution, candidate Candidate) Resolution {
	r.TargetBibID = candidate.BibID
	r.TargetCallNumber = candidate.BranchCallNumber
	if r.TargetCallNumber == "" && len(candidate.ResearchCallNumber) > 0 {
		r.TargetCallNumber = candidate.ResearchCallNumber[0]
	}
	r.TargetTitle = candidate.Title
	return r
}

// nyplCatResearchAnalyzer matches NYPL research cataloging records. Any
// matched candidate carrying a research call number is accepted as is.
type nyplCatResearchAnalyzer struct{}

func (nyplCatResearchAnalyzer) Resolve(incoming *bibs.Bib, candidates []Candidate) Resolution {
	classified := Classify(incoming, candidates)
	r := resolution(classified)

	if len(classified.Matched) == 0 {
		r.Action = ActionInsert
		r.CallNumberMatch = true
		return r
	}
	for _, candidate := range classified.Matched {
		if len(candidate.ResearchCallNumber) > 0 {
			action, updated := determineAction(incoming, candidate)
			r = withTarget(r, candidate)
			r.Action = action
			r.UpdatedByVendor = updated
			r.CallNumberMatch = true
			return r
		}
	}
	fallback := classified.Matched[len(classified.Matched)-1]
	r = withTarget(r, fallback)
	r.Action = ActionOverlay
	r.CallNumberMatch = false
	return r
}

// nyplCatBranchAnalyzer matches NYPL branch cataloging records on branch
// call number equality.
type nyplCatBranchAnalyzer struct{}

func (nyplCatBranchAnalyzer) Resolve(incoming *bibs.Bib, candidates []Candidate) Resolution {
	classified := Classify(incoming, candidates)
	r := resolution(classified)

	if len(classified.Matched) == 0 {
		r.Action = ActionInsert
		r.CallNumberMatch = true
		return r
	}
	for _, candidate := range classified.Matched {
		if candidate.BranchCallNumber != "" && incoming.BranchCallNumber == candidate.BranchCallNumber {
			action, updated := determineAction(incoming, candidate)
			r = withTarget(r, candidate)
			r.Action = action
			r.UpdatedByVendor = updated
			r.CallNumberMatch = true
			return r
		}
	}
	fallback := classified.Matched[len(classified.Matched)-1]
	action, updated := determineAction(incoming, fallback)
	r = withTarget(r, fallback)
	r.Action = action
	r.UpdatedByVendor = updated
	r.CallNumberMatch = false
	return r
}

// midwestVendors get their unmatched records attached rather than inserted:
// their bibs are brief records loaded ahead of the shipment.
var midwestVendors = map[string]bool{
	"Midwest DVD":   true,
	"Midwest Audio": true,
	"Midwest CD":    true,
}

// bplCatAnalyzer matches BPL cataloging records on branch call number
// equality.
type bplCatAnalyzer struct{}

func (bplCatAnalyzer) Resolve(incoming *bibs.Bib, candidates []Candidate) Resolution {
	classified := Classify(incoming, candidates)
	r := resolution(classified)

	if len(classified.Matched) == 0 {
		r.Action = ActionInsert
		if midwestVendors[incoming.VendorName()] {
			r.Action = ActionAttach
		}
		r.TargetBibID = incoming.BibID
		r.CallNumberMatch = true
		return r
	}
	for _, candidate := range classified.Matched {
		if candidate.BranchCallNumber != "" && incoming.BranchCallNumber == candidate.BranchCallNumber {
			action, updated := determineAction(incoming, candidate)
			r = withTarget(r, candidate)
			r.Action = action
			r.UpdatedByVendor = updated
			r.CallNumberMatch = true
			return r
		}
	}
	fallback := classified.Matched[len(classified.Matched)-1]
	action, updated := determineAction(incoming, fallback)
	r = withTarget(r, fallback)
	r.Action = action
	r.UpdatedByVendor = updated
	r.CallNumberMatch = false
	return r
}

// selectionAnalyzer attaches selection orders to any cataloged candidate.
type selectionAnalyzer struct{}

func (selectionAnalyzer) Resolve(incoming *bibs.Bib, candidates []Candidate) Resolution {
	classified := Classify(incoming, candidates)
	r := resolution(classified)
	r.CallNumberMatch = true

	if len(classified.Matched) == 0 {
		r.Action = ActionInsert
		return r
	}
	for _, candidate := range classified.Matched {
		if candidate.BranchCallNumber != "" || len(candidate.ResearchCallNumber) > 0 {
			r = withTarget(r, candidate)
			r.Action = ActionAttach
			return r
		}
	}
	fallback := classified.Matched[len(classified.Matched)-1]
	r = withTarget(r, fallback)
	r.Action = ActionAttach
	return r
}

// acquisitionsAnalyzer always inserts: acquisitions records are new orders
// with no existing bib to attach to.
type acquisitionsAnalyzer struct{}

func (acquisitionsAnalyzer) Resolve(incoming *bibs.Bib, candidates []Candidate) Resolution {
	classified := Classify(incoming, candidates)
	r := resolution(classified)
	r.Action = ActionInsert
	r.TargetBibID = incoming.BibID
	r.CallNumberMatch = true
	return r
}
