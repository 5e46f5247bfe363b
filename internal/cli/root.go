package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jwhan/marketbrief/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marketbrief",
	Short: "Marketbrief - fact-grounded daily market briefings",
	Long: `Marketbrief generates a daily market closing briefing from structured
data sources (market summaries, macro indicators, economic calendars,
news and policy meeting records), then verifies every factual claim in
the briefing against those same sources before release.

Generation runs a bounded draft, critique, revise loop: a reasoning
engine drafts the briefing through a fixed tool catalog, a panel of
independent validators checks the result, and the engine revises until
the panel passes or the iteration budget runs out. Nothing ships
uncited, and nothing cited goes unchecked.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("marketbrief v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.marketbrief/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".marketbrief"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("MARKETBRIEF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file and environment into one
// Config. The engine API key falls back to OPENAI_API_KEY.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if cfg.Engine.APIKey == "" {
		cfg.Engine.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg, nil
}
