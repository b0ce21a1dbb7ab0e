package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bookops/overload/internal/rules"
	"github.com/bookops/overload/internal/sierra"
	"github.com/bookops/overload/internal/templates"
	"github.com/bookops/overload/pkg/batch"
	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/logging"
	"github.com/bookops/overload/pkg/marc"
	"github.com/bookops/overload/pkg/report"
)

var processFlags struct {
	system      string
	workflow    string
	collection  string
	template    string
	outDir      string
	concurrency int
}

var processCmd = &cobra.Command{
	Use:   "process <file.mrc>",
	Short: "Process a vendor MARC file against Sierra",
	Long: `Process reads a vendor MARC file, matches each record against Sierra,
applies the workflow's field updates, deduplicates the records headed for
import, and writes <file>-DUP.mrc and <file>-NEW.mrc next to the input
(or under --out-dir). Reports are printed when the run completes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), args[0])
	},
}

func init() {
	processCmd.Flags().StringVarP(&processFlags.system, "system", "s", "", "library system: nypl or bpl (required)")
	processCmd.Flags().StringVarP(&processFlags.workflow, "workflow", "w", "", "workflow: cat, acq, or sel (required)")
	processCmd.Flags().StringVarP(&processFlags.collection, "collection", "c", "", "collection: BL, RL, or NONE")
	processCmd.Flags().StringVarP(&processFlags.template, "template", "t", "", "order template name (required for acq and sel)")
	processCmd.Flags().StringVarP(&processFlags.outDir, "out-dir", "o", "", "output directory (defaults to the input file's)")
	processCmd.Flags().IntVar(&processFlags.concurrency, "concurrency", 0, "concurrent Sierra lookups")
	_ = processCmd.MarkFlagRequired("system")
	_ = processCmd.MarkFlagRequired("workflow")
	rootCmd.AddCommand(processCmd)
}

func runProcess(ctx context.Context, path string) error {
	system, err := bibs.ParseSystem(processFlags.system)
	if err != nil {
		return err
	}
	workflow, err := bibs.ParseWorkflow(processFlags.workflow)
	if err != nil {
		return err
	}
	collection, err := bibs.ParseCollection(processFlags.collection)
	if err != nil {
		return err
	}

	if err := validateCredentials(system); err != nil {
		return err
	}
	source, err := sierra.NewSource(system, cfg.Sierra())
	if err != nil {
		return err
	}

	records, err := readRecords(path)
	if err != nil {
		return err
	}

	identifier, err := rules.Identifier(system)
	if err != nil {
		return err
	}
	batchBibs := make([]*bibs.Bib, len(records))
	for i, record := range records {
		bib := bibs.FromRecord(record, system)
		info := identifier.Identify(record)
		bib.Vendor = &info
		batchBibs[i] = bib
	}

	config := batch.Config{
		System:      system,
		Workflow:    workflow,
		Collection:  collection,
		Concurrency: processFlags.concurrency,
	}
	if workflow != bibs.WorkflowCataloging {
		template, err := loadTemplate(ctx, processFlags.template)
		if err != nil {
			return err
		}
		config.Template = template
		config.Matchpoints = template.Matchpoints
	}

	defaultLocation, err := rules.DefaultLocation(system, collection)
	if err != nil {
		return err
	}
	processor, err := batch.NewProcessor(config, source, defaultLocation)
	if err != nil {
		return err
	}

	session := uuid.NewString()
	log := logging.With().Str("session", session).Str("file", filepath.Base(path)).Logger()
	log.Info().
		Str("system", string(system)).
		Str("workflow", string(workflow)).
		Int("records", len(batchBibs)).
		Msg("processing batch")

	outcomes, barcodes, err := processor.Process(ctx, batchBibs)
	if err != nil {
		return err
	}
	batches := batch.Dedupe(outcomes)
	missing, ok := batch.ValidateBarcodes(batches, barcodes)
	if !ok {
		log.Error().Strs("missing", missing).Msg("output barcodes do not match input")
	}

	dupPath, newPath, err := writeBatches(path, processFlags.outDir, batches)
	if err != nil {
		return err
	}
	log.Info().
		Int("dup", len(batches.Dup)).
		Int("new", len(batches.Deduped)).
		Msg("batch written")

	printReports(outcomes, batches, missing, dupPath, newPath)
	return nil
}

func validateCredentials(system bibs.System) error {
	if system == bibs.SystemBPL {
		return cfg.ValidateBPL()
	}
	return cfg.ValidateNYPL()
}

func readRecords(path string) ([]*marc.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marc file: %w", err)
	}
	defer f.Close()
	records, err := marc.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read marc file %s: %w", path, err)
	}
	return records, nil
}

func loadTemplate(ctx context.Context, name string) (*bibs.Template, error) {
	if name == "" {
		return nil, fmt.Errorf("--template is required for acquisitions and selection runs")
	}
	store, err := templates.Open(cfg.TemplateDB)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.GetByName(ctx, name)
}

// writeBatches writes the attach records to <stem>-DUP.mrc and the deduped
// new records to <stem>-NEW.mrc. Empty batches produce no file.
func writeBatches(inPath, outDir string, batches batch.Batches) (dupPath, newPath string, err error) {
	if outDir == "" {
		outDir = filepath.Dir(inPath)
	}
	stem := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))

	if len(batches.Dup) > 0 {
		dupPath = filepath.Join(outDir, stem+"-DUP.mrc")
		if err = writeRecords(dupPath, batches.Dup); err != nil {
			return "", "", err
		}
	}
	if len(batches.Deduped) > 0 {
		newPath = filepath.Join(outDir, stem+"-NEW.mrc")
		if err = writeRecords(newPath, batches.Deduped); err != nil {
			return "", "", err
		}
	}
	return dupPath, newPath, nil
}

func writeRecords(path string, batchBibs []*bibs.Bib) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	records := make([]*marc.Record, len(batchBibs))
	for i, bib := range batchBibs {
		records[i] = bib.Record
	}
	if err := marc.WriteAll(f, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printReports(outcomes []batch.Outcome, batches batch.Batches, missing []string, dupPath, newPath string) {
	rows := report.FromOutcomes(outcomes)
	out := os.Stdout

	fmt.Fprintln(out)
	report.WriteSummary(out, report.Summarize(outcomes, batches, missing))
	for _, path := range []string{dupPath, newPath} {
		if path != "" {
			fmt.Fprintf(out, "wrote %s\n", path)
		}
	}

	fmt.Fprintln(out, "\nVendor breakdown:")
	report.WriteVendorBreakdown(out, report.VendorBreakdown(rows))

	if dup := report.Duplicates(rows, time.Now()); len(dup.Rows) > 0 {
		fmt.Fprintln(out)
		report.WriteDuplicateReport(out, dup)
	}
	if mismatched := report.CallNumberMismatches(rows); len(mismatched) > 0 {
		fmt.Fprintln(out, "\nCall number mismatches:")
		report.WriteCallNumberReport(out, mismatched)
	}
}
