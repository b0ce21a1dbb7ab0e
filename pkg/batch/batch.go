// Package batch runs the record processing pipeline over a file of incoming
// MARC records: pre-flight barcode checks, matching, decision analysis,
// field updates, deduplication, and output integrity validation.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/logging"
	"github.com/bookops/overload/pkg/match"
	"github.com/bookops/overload/pkg/update"
)

// defaultConcurrency bounds the number of records matched in parallel.
// Candidate lookups are network bound, so a small pool goes a long way
// without hammering the backends.
const defaultConcurrency = 4

// Config describes one processing run.
type Config struct {
	System      bibs.System
	Workflow    bibs.Workflow
	Collection  bibs.Collection
	Matchpoints bibs.Matchpoints
	Template    *bibs.Template
	Concurrency int
}

// Outcome is the result of processing a single record.
type Outcome struct {
	Bib        *bibs.Bib
	Resolution match.Resolution
	Err        error
}

// Processor drives the per-record pipeline.
type Processor struct {
	config   Config
	matcher  *match.Matcher
	analyzer match.Analyzer
	engine   *update.Engine
}

// NewProcessor wires a processor for one batch configuration. The analyzer
// is selected from the configuration, so an unsupported system, workflow,
// and collection combination fails here rather than mid-batch.
func NewProcessor(config Config, source match.CandidateSource, defaultLocation string) (*Processor, error) {
	analyzer, err := match.NewAnalyzer(config.System, config.Workflow, config.Collection)
	if err != nil {
		return nil, err
	}
	if config.Workflow != bibs.WorkflowCataloging && config.Template == nil {
		return nil, &errors.PreconditionError{
			Resource: "order template for order-level workflow",
			Err:      errors.ErrTemplateRequired,
		}
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	return &Processor{
		config:   config,
		matcher:  match.NewMatcher(source),
		analyzer: analyzer,
		engine:   update.NewEngine(config.System, config.Workflow, config.Collection, defaultLocation),
	}, nil
}

// Process runs every record through match, analysis, and update. Records are
// matched concurrently but outcomes keep the input order. A barcode shared
// by two incoming records aborts the batch before any lookup happens, and a
// record that fails its lookup, preconditions, or field updates aborts the
// batch after: a failed lookup means the catalog could not be consulted, not
// that no candidates exist, so an errored record never loads as new. The
// outcome slice is still returned so callers can see which record failed.
func (p *Processor) Process(ctx context.Context, records []*bibs.Bib) ([]Outcome, []string, error) {
	barcodes, err := CollectBarcodes(records)
	if err != nil {
		return nil, nil, err
	}

	outcomes := make([]Outcome, len(records))
	sem := make(chan struct{}, p.config.Concurrency)
	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = p.processOne(ctx, records[i])
		}(i)
	}
	wg.Wait()

	log := logging.FromContext(ctx)
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			continue
		}
		log.Error().
			Err(outcome.Err).
			Str("control_number", outcome.Bib.ControlNumber).
			Msg("record failed, batch aborted")
		return outcomes, barcodes, fmt.Errorf("record %s: %w", outcome.Bib.ControlNumber, outcome.Err)
	}
	return outcomes, barcodes, nil
}

func (p *Processor) processOne(ctx context.Context, bib *bibs.Bib) Outcome {
	log := logging.FromContext(ctx)

	matchpoints, err := match.MatchpointsFor(bib, p.config.Workflow, p.config.Matchpoints)
	if err != nil {
		return Outcome{Bib: bib, Err: err}
	}
	candidates, err := p.matcher.Candidates(ctx, bib, matchpoints)
	if err != nil {
		return Outcome{Bib: bib, Err: err}
	}

	resolution := p.analyzer.Resolve(bib, candidates)
	if resolution.TargetBibID != "" {
		bib.BibID = resolution.TargetBibID
	}
	if err := p.engine.Apply(bib, p.config.Template, resolution.TargetBibID); err != nil {
		return Outcome{Bib: bib, Resolution: resolution, Err: err}
	}

	log.Debug().
		Str("resource_id", resolution.ResourceID).
		Str("action", string(resolution.Action)).
		Str("target_bib_id", resolution.TargetBibID).
		Msg("record processed")
	return Outcome{Bib: bib, Resolution: resolution}
}

// CollectBarcodes gathers every item barcode across the incoming records.
// Duplicates among them mean the vendor shipped a broken file, which aborts
// the batch.
func CollectBarcodes(records []*bibs.Bib) ([]string, error) {
	var barcodes []string
	counts := map[string]int{}
	for _, record := range records {
		for _, barcode := range record.Barcodes {
			barcodes = append(barcodes, barcode)
			counts[barcode]++
		}
	}
	var dupes []string
	for _, barcode := range barcodes {
		if counts[barcode] > 1 {
			counts[barcode] = 0
			dupes = append(dupes, barcode)
		}
	}
	if len(dupes) > 0 {
		return nil, &errors.DuplicateBarcodeError{Barcodes: dupes}
	}
	return barcodes, nil
}
