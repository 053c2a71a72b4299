package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long: `Load the databases given with --database and report how many records
they hold and how much of each record has been downloaded.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	s := mustOpenStore(cfg, nil, mustLogger())
	st := s.Statistics()

	if humanOutput {
		outputHuman("Records:              %d\n", st.Records)
		outputHuman("Complete:             %d\n", st.Complete)
		outputHuman("With bibkey:          %d\n", st.WithBibKey)
		outputHuman("Info fetched:         %d\n", st.InfoFetched)
		outputHuman("References fetched:   %d\n", st.ReferencesFetched)
		outputHuman("Citations fetched:    %d\n", st.CitationsFetched)
		outputHuman("Co-citations fetched: %d\n", st.CocitationsFetched)
		return nil
	}
	return outputJSON(st)
}
