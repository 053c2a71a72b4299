package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matsen/citeweb/internal/config"
	"github.com/matsen/citeweb/internal/record"
	"github.com/matsen/citeweb/internal/resolve"
	"github.com/matsen/citeweb/internal/selector"
	"github.com/matsen/citeweb/internal/store"
	"github.com/matsen/citeweb/internal/viz"
)

var (
	runOutput      string
	runRecIDs      []string
	runBibKeys     []string
	runURLs        []string
	runQueries     []string
	runLabels      []string
	runGet         []string
	runPlot        []string
	runRank        string
	runClusterDirs bool
	runMaxSeeds    int
	runForce       bool
	runOffline     bool
)

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOutput, "output", "o", "", "Graph output file (.dot, .svg, .png or .html)")
	f.StringSliceVarP(&runRecIDs, "recids", "r", nil, "Files or directories with one record id per line")
	f.StringSliceVarP(&runBibKeys, "bibkeys", "b", nil, "Files, directories or globs to scan for bibliographic keys (.tex, .bib, .pdf, ...)")
	f.StringSliceVarP(&runURLs, "urls", "u", nil, "Files, directories or globs to scan for INSPIRE-HEP record URLs")
	f.StringArrayVarP(&runQueries, "queries", "q", nil, "INSPIRE-HEP search queries")
	f.StringSliceVar(&runLabels, "labels", nil, "CSV files of 'label;url' rows setting custom node labels")
	f.StringSliceVarP(&runGet, "get", "g", nil, "Step expressions to crawl, e.g. seeds.refs or all.cites")
	f.StringSliceVarP(&runPlot, "plot", "p", nil, "Selection rules for the plot, e.g. seeds.refs>all")
	f.Lookup("plot").NoOptDefVal = selector.DefaultRule
	f.StringVar(&runRank, "rank", "", "Rank nodes in the plot: year")
	f.BoolVar(&runClusterDirs, "cluster-dirs", false, "Group seeds from each input directory into one plot cluster")
	f.IntVar(&runMaxSeeds, "maxseeds", 0, "Process at most this many ids per crawl hop (0: unlimited)")
	f.BoolVar(&runForce, "forceupdate", false, "Download again even if data is already present")
	f.BoolVar(&runOffline, "offline-bibkeys", false, "Resolve bibliographic keys only against the local database")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve seeds, crawl citations and plot the network",
	Long: `Resolve seed records, crawl INSPIRE-HEP from them and plot the result.

Step expressions (--get) have the form origin[.kind[.kind...]] where origin
is seeds (s) or all (a) and kind is refs (r), cites (c) or refscites (rc).
A step without kind only downloads bibliographic info. Ids found by one step
are the seeds of the next.

Selection rules (--plot) have the form source>target, each side being
origin[.kind]. An edge is drawn if any rule accepts it. --plot without a
value draws seeds>seeds; rules are passed as --plot=RULE.

Examples:
  # Download references of the papers cited in a LaTeX file and plot them
  citeweb run -b paper.tex -g seeds -g seeds.refs -p='seeds.refs>all' -o refs.svg

  # Plot the citations between papers of a search, ranked by year
  citeweb run -q "t holography and date 1998" -g seeds.cites -p -o out.dot --rank year`,
	RunE: runRun,
}

// RunResult is the response for the run command.
type RunResult struct {
	Seeds   int    `json:"seeds"`
	Records int    `json:"records"`
	Nodes   int    `json:"nodes,omitempty"`
	Edges   int    `json:"edges,omitempty"`
	Output  string `json:"output,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := mustLogger()
	cfg := mustLoadConfig()

	steps, skipped, err := selector.ParseSteps(runGet)
	if err != nil {
		exitWithError(ExitBadStep, "%v", err)
	}
	for _, serr := range skipped {
		logger.Warn("skipping step", "err", serr)
	}

	plot := cmd.Flags().Changed("plot")
	var rules []selector.Rule
	if plot {
		if runOutput == "" {
			exitWithError(ExitPlotNoOutput, "--plot requires --output")
		}
		if rules, err = selector.ParseRules(runPlot); err != nil {
			exitWithError(ExitBadRule, "%v", err)
		}
	}
	rank, err := viz.ParseRankMode(runRank)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := mustOpenStore(cfg, newClient(cfg), logger)
	s.LogStatistics()

	for _, path := range runLabels {
		if _, err := s.ImportLabels(path); err != nil {
			exitWithError(exitCodeFor(err), "importing labels: %v", err)
		}
	}

	r := resolve.New(s, resolve.WithLogger(logger), resolve.WithOfflineOnly(runOffline))
	seeds, clusters, err := resolveSeeds(ctx, r)
	if err != nil {
		exitWithError(exitCodeFor(err), "resolving seeds: %v", err)
	}
	logger.Info("resolved seeds", "count", len(seeds))

	if len(seeds) == 0 && len(steps) == 0 && !plot {
		logger.Info("nothing to do")
		return outputRunResult(RunResult{Records: s.Len()})
	}

	ids := seeds
	if len(steps) > 0 {
		p := newProgress(logger)
		ids, err = s.Autocomplete(ctx, steps, store.AutocompleteOptions{
			Force:      runForce,
			Seeds:      seeds,
			SaveEvery:  cfg.Crawl.SaveEvery,
			StatsEvery: cfg.Crawl.StatsEvery,
			Limit:      runMaxSeeds,
		})
		if saveErr := s.Save(""); saveErr != nil {
			exitWithError(ExitError, "saving database: %v", saveErr)
		}
		if err != nil {
			exitWithError(exitCodeFor(err), "crawling: %v", err)
		}
		p.done("crawl finished")
		s.LogStatistics()
	} else if err := s.Save(""); err != nil {
		exitWithError(ExitError, "saving database: %v", err)
	}

	result := RunResult{Seeds: len(seeds), Records: s.Len()}
	if plot {
		g := buildGraph(cfg, s, rank, rules, ids, clusters, logger)
		if err := g.WriteFile(ctx, runOutput, viz.HTMLOptions{Layout: cfg.Dot.Layout}); err != nil {
			exitWithError(ExitError, "writing plot: %v", err)
		}
		result.Nodes = len(g.Nodes())
		result.Edges = len(g.Edges())
		result.Output = runOutput
	}
	return outputRunResult(result)
}

func outputRunResult(res RunResult) error {
	if humanOutput {
		outputHuman("Seeds: %d\nRecords in database: %d\n", res.Seeds, res.Records)
		if res.Output != "" {
			outputHuman("Plotted %d nodes and %d edges to %s\n", res.Nodes, res.Edges, res.Output)
		}
		return nil
	}
	return outputJSON(res)
}

// resolveSeeds collects seeds from every input flag. With --cluster-dirs the
// file-based seeds are also grouped by their directory.
func resolveSeeds(ctx context.Context, r *resolve.Resolver) (record.IDSet, map[string]record.IDSet, error) {
	seeds := record.IDSet{}
	byDir := make(map[string]record.IDSet)
	collect := func(perFile map[string]record.IDSet, err error) error {
		if err != nil {
			return err
		}
		for file, ids := range perFile {
			seeds.Union(ids)
			dir := filepath.Dir(file)
			if byDir[dir] == nil {
				byDir[dir] = record.IDSet{}
			}
			byDir[dir].Union(ids)
		}
		return nil
	}

	if len(runRecIDs) > 0 {
		if err := collect(r.FromIDPathsPerFile(runRecIDs)); err != nil {
			return nil, nil, err
		}
	}
	if len(runURLs) > 0 {
		if err := collect(r.FromURLPathsPerFile(runURLs)); err != nil {
			return nil, nil, err
		}
	}
	if len(runBibKeys) > 0 {
		if err := collect(r.FromBibKeyPathsPerFile(ctx, runBibKeys)); err != nil {
			return nil, nil, err
		}
	}
	if len(runQueries) > 0 {
		ids, err := r.FromQueries(ctx, runQueries)
		if err != nil {
			return nil, nil, err
		}
		seeds.Union(ids)
	}

	if !runClusterDirs {
		byDir = nil
	}
	return seeds, byDir, nil
}

func buildGraph(cfg *config.Config, s *store.Store, rank viz.RankMode, rules []selector.Rule,
	seeds record.IDSet, clusters map[string]record.IDSet, logger *log.Logger) *viz.DotGraph {
	g := viz.NewDotGraph(s,
		viz.WithGraphStyle(cfg.Dot.GraphStyle),
		viz.WithNodeStyle(cfg.Dot.NodeStyle),
		viz.WithURLTemplate(cfg.Dot.NodeURL),
		viz.WithRankStyle(cfg.Dot.RankStyle),
		viz.WithRank(rank),
	)
	n := g.Select(rules, seeds)
	logger.Info("selected edges", "count", n)

	dirs := make([]string, 0, len(clusters))
	for dir := range clusters {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		g.AddCluster(filepath.Base(dir), clusters[dir], cfg.Dot.ClusterStyle)
	}
	return g
}
