// Package viz projects stored records into a citation graph and renders it as
// Graphviz DOT, as SVG/PNG images, or as an interactive HTML page.
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/citeweb/internal/record"
)

// Defaults for DotGraph styling.
const (
	DefaultGraphStyle = "node [shape=box, style=rounded]; rankdir=TB"
	DefaultRankStyle  = "shape=plaintext, fontsize=16"
	yearNodePrefix    = "year_"
)

// RankMode selects the layout scaffolding added to the graph.
type RankMode string

// Rank modes.
const (
	RankNone RankMode = ""
	RankYear RankMode = "year"
)

// ParseRankMode validates a rank mode name.
func ParseRankMode(s string) (RankMode, error) {
	switch RankMode(strings.ToLower(strings.TrimSpace(s))) {
	case RankNone:
		return RankNone, nil
	case RankYear:
		return RankYear, nil
	default:
		return RankNone, fmt.Errorf("unknown rank mode %q: must be year", s)
	}
}

// Records is the view of the store the renderer reads.
type Records interface {
	Records() []*record.Record
	Lookup(id string) (*record.Record, bool)
}

// Edge is a directed citation: From cites To.
type Edge struct {
	From string
	To   string
}

// Cluster groups nodes into a labelled DOT subgraph.
type Cluster struct {
	Name  string
	IDs   record.IDSet
	Style string
}

// DotGraph accumulates nodes, edges and clusters and renders them as DOT.
type DotGraph struct {
	records     Records
	graphStyle  string
	nodeStyle   string
	urlTemplate string
	rankMode    RankMode
	rankStyle   string

	nodeStyles map[string]string
	edges      map[Edge]struct{}
	clusters   []Cluster
}

// Option configures a DotGraph.
type Option func(*DotGraph)

// WithGraphStyle sets the global style header; statements are separated by ';'.
func WithGraphStyle(style string) Option {
	return func(g *DotGraph) {
		g.graphStyle = style
	}
}

// WithNodeStyle appends attributes to every default node declaration.
func WithNodeStyle(attrs string) Option {
	return func(g *DotGraph) {
		g.nodeStyle = attrs
	}
}

// WithURLTemplate sets the URL template for node links.
func WithURLTemplate(tmpl string) Option {
	return func(g *DotGraph) {
		g.urlTemplate = tmpl
	}
}

// WithRank enables rank scaffolding.
func WithRank(mode RankMode) Option {
	return func(g *DotGraph) {
		g.rankMode = mode
	}
}

// WithRankStyle sets the attributes of the year pseudo-nodes.
func WithRankStyle(attrs string) Option {
	return func(g *DotGraph) {
		g.rankStyle = attrs
	}
}

// NewDotGraph creates an empty graph over records.
func NewDotGraph(records Records, opts ...Option) *DotGraph {
	g := &DotGraph{
		records:     records,
		graphStyle:  DefaultGraphStyle,
		urlTemplate: record.DefaultURLTemplate,
		rankStyle:   DefaultRankStyle,
		nodeStyles:  make(map[string]string),
		edges:       make(map[Edge]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddEdge adds the directed edge from -> to.
func (g *DotGraph) AddEdge(from, to string) {
	g.edges[Edge{From: from, To: to}] = struct{}{}
}

// SetNodeStyle overrides the attribute list of a node and adds it to the graph.
func (g *DotGraph) SetNodeStyle(id, attrs string) {
	g.nodeStyles[id] = attrs
}

// AddCluster adds a named cluster. Only members that are graph nodes are drawn.
func (g *DotGraph) AddCluster(name string, ids record.IDSet, style string) {
	g.clusters = append(g.clusters, Cluster{Name: name, IDs: ids, Style: style})
}

// Edges returns the edges sorted by source then target.
func (g *DotGraph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Nodes returns the sorted ids of every node: edge endpoints and styled nodes.
func (g *DotGraph) Nodes() []string {
	return g.nodeSet().Sorted()
}

func (g *DotGraph) nodeSet() record.IDSet {
	nodes := record.IDSet{}
	for e := range g.edges {
		nodes.Add(e.From)
		nodes.Add(e.To)
	}
	for id := range g.nodeStyles {
		nodes.Add(id)
	}
	return nodes
}

// Label returns the display label of id.
func (g *DotGraph) Label(id string) string {
	if rec, ok := g.records.Lookup(id); ok {
		return rec.Label()
	}
	return id
}

// URL returns the link target of id.
func (g *DotGraph) URL(id string) string {
	return record.New(id).URL(g.urlTemplate)
}

// Year returns the publication year of id, if its bibkey carries one.
func (g *DotGraph) Year(id string) (int, bool) {
	if rec, ok := g.records.Lookup(id); ok {
		return rec.Year()
	}
	return 0, false
}

func (g *DotGraph) nodeAttrs(id string) string {
	if style, ok := g.nodeStyles[id]; ok {
		return style
	}
	attrs := fmt.Sprintf("label=%s, URL=%s", quote(g.Label(id)), quote(g.URL(id)))
	if g.nodeStyle != "" {
		attrs += ", " + g.nodeStyle
	}
	return attrs
}

// Render returns the DOT document. Blocks appear in a fixed order: style
// header, rank scaffold, clusters, node declarations, edges.
func (g *DotGraph) Render() string {
	var b strings.Builder
	nodes := g.Nodes()

	b.WriteString("digraph citations {\n")
	for _, stmt := range splitStatements(g.graphStyle) {
		fmt.Fprintf(&b, "\t%s;\n", stmt)
	}

	if g.rankMode == RankYear {
		g.writeYearRank(&b, nodes)
	}

	members := g.nodeSet()
	for _, c := range g.clusters {
		g.writeCluster(&b, c, members)
	}

	for _, id := range nodes {
		fmt.Fprintf(&b, "\t%s [%s];\n", quote(id), g.nodeAttrs(id))
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "\t%s -> %s;\n", quote(e.From), quote(e.To))
	}

	b.WriteString("}\n")
	return b.String()
}

// YearGroups buckets nodes by publication year. Nodes without a year are
// left out.
func (g *DotGraph) YearGroups() map[int][]string {
	groups := make(map[int][]string)
	for _, id := range g.Nodes() {
		if year, ok := g.Year(id); ok {
			groups[year] = append(groups[year], id)
		}
	}
	return groups
}

func (g *DotGraph) writeYearRank(b *strings.Builder, nodes []string) {
	groups := g.YearGroups()
	if len(groups) == 0 {
		return
	}
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	b.WriteString("\t{\n")
	fmt.Fprintf(b, "\t\tnode [%s];\n", g.rankStyle)
	for _, y := range years {
		fmt.Fprintf(b, "\t\t%s [label=\"%d\"];\n", quote(yearNodeID(y)), y)
	}
	for i := 0; i+1 < len(years); i++ {
		fmt.Fprintf(b, "\t\t%s -> %s;\n", quote(yearNodeID(years[i])), quote(yearNodeID(years[i+1])))
	}
	b.WriteString("\t}\n")

	for _, y := range years {
		fmt.Fprintf(b, "\t{ rank=same; %s;", quote(yearNodeID(y)))
		for _, id := range groups[y] {
			fmt.Fprintf(b, " %s;", quote(id))
		}
		b.WriteString(" }\n")
	}
}

func (g *DotGraph) writeCluster(b *strings.Builder, c Cluster, members record.IDSet) {
	fmt.Fprintf(b, "\tsubgraph %s {\n", quote("cluster_"+c.Name))
	fmt.Fprintf(b, "\t\tlabel=%s;\n", quote(c.Name))
	for _, stmt := range splitStatements(c.Style) {
		fmt.Fprintf(b, "\t\t%s;\n", stmt)
	}
	for _, id := range c.IDs.Sorted() {
		if members.Has(id) {
			fmt.Fprintf(b, "\t\t%s;\n", quote(id))
		}
	}
	b.WriteString("\t}\n")
}

func yearNodeID(year int) string {
	return fmt.Sprintf("%s%d", yearNodePrefix, year)
}

func splitStatements(style string) []string {
	var stmts []string
	for _, s := range strings.Split(style, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
