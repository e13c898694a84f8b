package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "paramext",
	Short: "Extract epidemiological parameters from scientific papers",
	Long: `paramext runs LLM extraction pipelines over folders of research PDFs:
a retrieval-augmented pipeline over section chunks, a two-stage pipeline
over full document text, a human-judged prompt-refinement loop, and a
CFR-specific extraction with confusion-matrix evaluation.

Example usage:
  paramext extract --folder ./papers --output ./results
  paramext twostage --folder ./papers --output ./results
  paramext refine --papers ./papers --truth truth.csv --ledger ledger.csv
  paramext eval --ledger ledger.csv --iteration 3`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				return fmt.Errorf("failed to load .env: %w", err)
			}
		}

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, wdErr := os.Getwd()
			if wdErr != nil {
				return fmt.Errorf("failed to get working directory: %w", wdErr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if verbose {
			cfg.Logging.Verbose = true
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./paramext.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose progress output")
}

func GetConfig() *config.Config {
	return cfg
}
