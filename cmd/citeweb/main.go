// Package main provides the citeweb CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	verbosity   string
	databases   []string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citeweb",
	Short: "Crawl and plot INSPIRE-HEP citation networks",
	Long: `citeweb downloads citation data from INSPIRE-HEP and plots the
citation network between papers.

Seeds are given as record ids, bibliographic keys (e.g. found in a LaTeX
file or a PDF), INSPIRE-HEP URLs, or search queries. Step expressions such
as "seeds.refs" describe how far to crawl from them; selection rules such as
"seeds.refs>all" describe which edges to draw.

Everything downloaded is kept in a JSONL database so later runs only fetch
what is missing. All commands output JSON by default; use --human for
human-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for CITEWEB_INSPIRE_URL)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/citeweb/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "Log level: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringSliceVarP(&databases, "database", "d", []string{DefaultDatabase},
		"Database file(s); the first is the save target, the others are merged in")
	rootCmd.Version = Version
}
