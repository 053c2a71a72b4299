package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/citeweb/internal/store"
)

var mergeOutput string

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Merged database file (required)")
	_ = mergeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <database>...",
	Short: "Merge several databases into one",
	Long: `Merge databases into a single snapshot. Records with the same id are
combined: edge sets are unioned and download flags kept. Conflicting
bibliographic keys abort the merge.

Example:
  citeweb merge -o all.jsonl.zst laptop.jsonl desktop.jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

// MergeResult is the response for the merge command.
type MergeResult struct {
	Inputs  int    `json:"inputs"`
	Records int    `json:"records"`
	Output  string `json:"output"`
}

func runMerge(cmd *cobra.Command, args []string) error {
	logger := mustLogger()

	s := store.New(mergeOutput, nil, store.WithLogger(logger))
	loaded, err := s.Load(args...)
	if err != nil {
		exitWithError(exitCodeFor(err), "merging: %v", err)
	}
	if !loaded {
		exitWithError(ExitMissingInput, "none of the input databases exist")
	}
	if err := s.Save(""); err != nil {
		exitWithError(ExitError, "saving merged database: %v", err)
	}

	res := MergeResult{Inputs: len(args), Records: s.Len(), Output: mergeOutput}
	if humanOutput {
		outputHuman("Merged %d databases into %s (%d records)\n", res.Inputs, res.Output, res.Records)
		return nil
	}
	return outputJSON(res)
}
