package match

import (
	"context"
	"fmt"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/logging"
)

// Matcher queries a CandidateSource for records matching an incoming bib.
type Matcher struct {
	source CandidateSource
}

// NewMatcher creates a Matcher backed by the given candidate source.
func NewMatcher(source CandidateSource) *Matcher {
	return &Matcher{source: source}
}

// MatchpointsFor returns the matchpoints to use for a record. Cataloging
// records are matched on their vendor's matchpoints; acquisitions and
// selection records on the matchpoints supplied with the batch.
func MatchpointsFor(bib *bibs.Bib, workflow bibs.Workflow, batch bibs.Matchpoints) (bibs.Matchpoints, error) {
	if workflow == bibs.WorkflowCataloging {
		if bib.Vendor == nil {
			return bibs.Matchpoints{}, &errors.PreconditionError{
				Resource: "vendor info for cataloging workflow",
				Err:      errors.ErrVendorInfoRequired,
			}
		}
		return bib.Vendor.Matchpoints, nil
	}
	if batch.Empty() {
		return bibs.Matchpoints{}, &errors.PreconditionError{
			Resource: fmt.Sprintf("matchpoints for %s workflow", workflow),
			Err:      errors.ErrMatchpointsRequired,
		}
	}
	return batch, nil
}

// Candidates looks up candidate records for a bib. Matchpoints are tried in
// priority order; ones the record carries no value for are skipped, and the
// first lookup returning any candidates wins. An empty slice means no
// matchpoint produced a result.
func (m *Matcher) Candidates(ctx context.Context, bib *bibs.Bib, matchpoints bibs.Matchpoints) ([]Candidate, error) {
	log := logging.FromContext(ctx)
	for _, mp := range matchpoints.Ordered() {
		value := bib.MatchpointValue(mp)
		if value == "" {
			log.Debug().
				Str("matchpoint", string(mp)).
				Msg("record has no value for matchpoint, skipping")
			continue
		}
		candidates, err := m.source.Lookup(ctx, mp, value)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			log.Debug().
				Str("matchpoint", string(mp)).
				Str("value", value).
				Int("candidates", len(candidates)).
				Msg("matchpoint produced candidates")
			return candidates, nil
		}
	}
	return nil, nil
}
