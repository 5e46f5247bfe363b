package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/pipeline"
	"github.com/jwhan/marketbrief/internal/score"
)

var (
	runDate       string
	runDataDir    string
	runOutDir     string
	runModel      string
	runIterations int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and validate a market closing briefing",
	Long: `Run generates the closing briefing for a given date:
- Loads all configured data sources
- Drafts the briefing through the reasoning engine and its tool catalog
- Validates every factual claim against the loaded sources
- Revises until the validators pass or the iteration budget runs out
- Writes the briefing markdown and a metadata JSON artifact

Example:
  marketbrief run --date 2024-03-15 --data-dir ./data
  marketbrief run --data-dir ./data --out ./briefings --max-iterations 5`,
	Args: cobra.NoArgs,
	RunE: runBriefing,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "briefing date, YYYY-MM-DD (default: today)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory holding source files (calendar.csv, macro.csv, news.json, fomc.json, market.json)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "output directory for artifacts")
	runCmd.Flags().StringVar(&runModel, "model", "", "engine model name override")
	runCmd.Flags().IntVar(&runIterations, "max-iterations", 0, "revision budget override")
}

func runBriefing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runDataDir != "" {
		applyDataDir(cfg, runDataDir)
	}
	if runOutDir != "" {
		cfg.Output.Dir = runOutDir
	}
	if runModel != "" {
		cfg.Engine.Model = runModel
	}
	if runIterations > 0 {
		cfg.Run.MaxIterations = runIterations
	}
	if len(cfg.Sources.Locators()) == 0 {
		return fmt.Errorf("no data sources configured; set --data-dir or list sources in the config file")
	}
	if cfg.Engine.Provider == "openai" && cfg.Engine.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	date := runDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
	}

	components, err := pipeline.Build(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Briefing date: %s\n", date)
		fmt.Fprintf(os.Stderr, "Engine: %s/%s\n", cfg.Engine.Provider, cfg.Engine.Model)
		fmt.Fprintf(os.Stderr, "Revision budget: %d\n\n", cfg.Run.MaxIterations)
	}

	result, err := components.Loop.Run(ctx, date)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	mdPath, jsonPath, err := pipeline.WriteArtifacts(cfg.Output.Dir, result)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Wrote briefing: %s\n", mdPath)
	fmt.Printf("✓ Wrote metadata: %s\n", jsonPath)
	printRunSummary(result)

	if result.Meta.Unresolved {
		fmt.Println("\nWarning: issues remain unresolved after the revision budget; review the metadata before release.")
	}
	return nil
}

func applyDataDir(cfg *model.Config, dir string) {
	if cfg.Sources.Calendar == "" {
		cfg.Sources.Calendar = filepath.Join(dir, "calendar.csv")
	}
	if cfg.Sources.Macro == "" {
		cfg.Sources.Macro = filepath.Join(dir, "macro.csv")
	}
	if cfg.Sources.News == "" {
		cfg.Sources.News = filepath.Join(dir, "news.json")
	}
	if cfg.Sources.FOMC == "" {
		cfg.Sources.FOMC = filepath.Join(dir, "fomc.json")
	}
	if cfg.Sources.Market == "" {
		cfg.Sources.Market = filepath.Join(dir, "market.json")
	}
}

func printRunSummary(result *pipeline.RunResult) {
	meta := result.Meta
	fmt.Printf("\nRun %s\n", meta.RunID)
	fmt.Printf("  Revisions:  %d\n", meta.Iterations)
	if v := meta.Validation; v != nil {
		grounding := score.NewScorer().Calculate(v)
		fmt.Printf("  Claims:     %d total, %d valid, %d invalid, %d not found\n",
			v.ClaimsTotal, v.ClaimsValid, v.ClaimsInvalid, v.ClaimsNotFound)
		fmt.Printf("  Grounding:  %d/100 (%s confidence)\n", grounding.Index, grounding.Confidence)
		fmt.Printf("  Audience:   %s\n", v.Audience.Fitness)
		fmt.Printf("  Pass:       %v\n", v.OverallPass)
	}
}
