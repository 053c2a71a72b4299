package viz

// GraphData contains all data needed to render the interactive visualization.
type GraphData struct {
	Nodes []Node      `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Node represents a publication in the graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
	Year  int    `json:"year,omitempty"`

	// Cluster is the name of the first cluster containing the node.
	Cluster string `json:"cluster,omitempty"`

	// Sizing
	CitedBy int `json:"citedBy"`
}

// GraphEdge is a citation: Source cites Target.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphData converts the selected nodes and edges for the HTML renderer.
func (g *DotGraph) GraphData() *GraphData {
	edges := g.Edges()
	citedBy := make(map[string]int)
	data := &GraphData{
		Nodes: make([]Node, 0, len(g.nodeStyles)+len(edges)),
		Edges: make([]GraphEdge, 0, len(edges)),
	}
	for _, e := range edges {
		citedBy[e.To]++
		data.Edges = append(data.Edges, GraphEdge{Source: e.From, Target: e.To})
	}

	for _, id := range g.Nodes() {
		n := Node{
			ID:      id,
			Label:   g.Label(id),
			URL:     g.URL(id),
			CitedBy: citedBy[id],
		}
		if year, ok := g.Year(id); ok {
			n.Year = year
		}
		for _, c := range g.clusters {
			if c.IDs.Has(id) {
				n.Cluster = c.Name
				break
			}
		}
		data.Nodes = append(data.Nodes, n)
	}
	return data
}
