package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/citeweb/internal/storage"
)

var indexPath string

func init() {
	indexCmd.Flags().StringVar(&indexPath, "index", "", "SQLite index file (default: next to the first database)")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the SQLite query index from the databases",
	Long: `Rebuild the SQLite query index from the JSONL databases.

The index is disposable: the JSONL database is the source of truth and the
index can be rebuilt at any time. Use 'citeweb query' to search it.`,
	RunE: runIndex,
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
	Index   string `json:"index"`
}

// defaultIndexPath derives the index file from the database path.
func defaultIndexPath(database string) string {
	base := strings.TrimSuffix(database, storage.CompressedSuffix)
	base = strings.TrimSuffix(base, ".jsonl")
	return base + ".index.db"
}

func resolvedIndexPath() string {
	if indexPath != "" {
		return indexPath
	}
	return defaultIndexPath(databases[0])
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	s := mustOpenStore(cfg, nil, mustLogger())

	path := resolvedIndexPath()
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer db.Close()

	n, err := db.RebuildFromRecords(s.Records())
	if err != nil {
		exitWithError(ExitError, "rebuilding index: %v", err)
	}

	res := IndexResult{Status: "rebuilt", Records: n, Index: path}
	if humanOutput {
		outputHuman("Indexed %d records into %s\n", n, path)
		return nil
	}
	return outputJSON(res)
}
