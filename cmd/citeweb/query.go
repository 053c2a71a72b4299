package main

import (
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/citeweb/internal/storage"
)

// DefaultQueryLimit bounds the rows returned by list-style queries.
const DefaultQueryLimit = 50

var (
	queryBibKey     string
	queryIncomplete bool
	queryCiting     string
	queryCitedBy    string
	queryYears      bool
	queryLimit      int
)

func init() {
	f := queryCmd.Flags()
	f.StringVar(&indexPath, "index", "", "SQLite index file (default: next to the first database)")
	f.StringVar(&queryBibKey, "bibkey", "", "List records whose bibkey matches a SQL LIKE pattern, e.g. 'Witten:%'")
	f.BoolVar(&queryIncomplete, "incomplete", false, "List records with missing information")
	f.StringVar(&queryCiting, "citing", "", "List ids of records citing this id")
	f.StringVar(&queryCitedBy, "cited-by", "", "List ids cited by this id")
	f.BoolVar(&queryYears, "years", false, "Count records per publication year")
	f.IntVarP(&queryLimit, "limit", "n", DefaultQueryLimit, "Maximum number of records to list")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the SQLite index",
	Long: `Query the index built by 'citeweb index'.

Exactly one of --bibkey, --incomplete, --citing, --cited-by or --years
selects the query.`,
	RunE: runQuery,
}

// YearCount is one row of the --years query.
type YearCount struct {
	Year    int `json:"year"`
	Records int `json:"records"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	path := resolvedIndexPath()
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitMissingInput, "index %s not found\n\nRun 'citeweb index' to create it.", path)
	}

	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer db.Close()

	switch {
	case queryBibKey != "":
		recs, err := db.FindByBibKey(queryBibKey, queryLimit)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		return outputRecords(recs)
	case queryIncomplete:
		recs, err := db.ListIncomplete(queryLimit)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		return outputRecords(recs)
	case queryCiting != "":
		ids, err := db.Citing(queryCiting)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		return outputIDs(ids)
	case queryCitedBy != "":
		ids, err := db.CitedBy(queryCitedBy)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		return outputIDs(ids)
	case queryYears:
		counts, err := db.CountsByYear()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		rows := make([]YearCount, 0, len(counts))
		for y, n := range counts {
			rows = append(rows, YearCount{Year: y, Records: n})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
		if humanOutput {
			for _, r := range rows {
				outputHuman("%d  %d\n", r.Year, r.Records)
			}
			return nil
		}
		return outputJSON(rows)
	default:
		exitWithError(ExitError, "no query given; use --bibkey, --incomplete, --citing, --cited-by or --years")
	}
	return nil
}

func outputRecords(recs []storage.IndexedRecord) error {
	if recs == nil {
		recs = []storage.IndexedRecord{}
	}
	if humanOutput {
		for _, r := range recs {
			status := "incomplete"
			if r.Complete {
				status = "complete"
			}
			outputHuman("%-10s %-30s %s\n", r.ID, r.Label, status)
		}
		return nil
	}
	return outputJSON(recs)
}

func outputIDs(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if humanOutput {
		for _, id := range ids {
			outputHuman("%s\n", id)
		}
		return nil
	}
	return outputJSON(ids)
}
