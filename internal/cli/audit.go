package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/pipeline"
	"github.com/jwhan/marketbrief/internal/score"
	"github.com/jwhan/marketbrief/internal/worker"
)

var (
	auditDataDir     string
	auditListFile    string
	auditConcurrency int
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit [briefing.md ...]",
	Short: "Re-validate existing briefings against the data sources",
	Long: `Audit runs the validator panel over already written briefings without
regenerating them. Citations are read from the inline reference tags.

Useful after source data has been corrected, or to check briefings
produced elsewhere.

Example:
  marketbrief audit output/briefings/briefing_2024-03-15.md --data-dir ./data
  marketbrief audit --list briefings.txt --data-dir ./data --concurrency 4`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditDataDir, "data-dir", "", "directory holding source files")
	auditCmd.Flags().StringVar(&auditListFile, "list", "", "file listing briefing paths, one per line")
	auditCmd.Flags().IntVar(&auditConcurrency, "concurrency", 2, "number of concurrent audits")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if auditDataDir != "" {
		applyDataDir(cfg, auditDataDir)
	}
	if len(cfg.Sources.Locators()) == 0 {
		return fmt.Errorf("no data sources configured; set --data-dir or list sources in the config file")
	}
	if cfg.Engine.Provider == "openai" && cfg.Engine.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	paths := args
	if auditListFile != "" {
		listed, err := worker.ReadPathsFromFile(auditListFile)
		if err != nil {
			return err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("nothing to audit: pass briefing paths or --list")
	}

	components, err := pipeline.Build(cfg)
	if err != nil {
		return err
	}
	if err := components.Registry.Load(cfg.Sources.Locators()); err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	for typ, loadErr := range components.Registry.LoadErrors() {
		fmt.Fprintf(os.Stderr, "Warning: source %s unavailable: %v\n", typ, loadErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	batch := worker.NewBatchAuditor(components.Auditor, auditConcurrency)
	outcomes := batch.ProcessPaths(ctx, paths)

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", outcome.Path, outcome.Error)
			continue
		}
		printAuditOutcome(outcome.Path, outcome.Result)
		if !outcome.Result.OverallPass {
			failed++
		}
	}

	fmt.Printf("\nAudited %d briefings, %d failed\n", len(outcomes), failed)
	if failed > 0 {
		return fmt.Errorf("%d briefings failed the audit", failed)
	}
	return nil
}

func printAuditOutcome(path string, result *model.ValidationResult) {
	mark := "✓"
	if !result.OverallPass {
		mark = "✗"
	}
	grounding := score.NewScorer().Calculate(result)
	fmt.Printf("%s %s: %d claims, %d invalid, %d not found, %d citation gaps, grounding %d/100\n",
		mark, path, result.ClaimsTotal, result.ClaimsInvalid,
		result.ClaimsNotFound, len(result.CitationGaps), grounding.Index)
	if verbose {
		for _, fb := range result.Feedback {
			fmt.Printf("    - %s\n", fb)
		}
		for _, ref := range result.Unresolvable {
			fmt.Printf("    - unresolvable citation: %s\n", ref.String())
		}
	}
}
