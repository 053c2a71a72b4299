package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

var pageTemplate = template.Must(template.New("citations").Parse(pageHTML))

// HTMLOptions configures the interactive page.
type HTMLOptions struct {
	Layout string // one of Layouts; empty means "force"
	Title  string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Layout: "force",
		Title:  "Citation graph",
	}
}

// cytoscapeLayouts maps layout names to Cytoscape.js layout algorithms.
var cytoscapeLayouts = map[string]string{
	"force":  "cose",
	"circle": "circle",
	"grid":   "grid",
	"tree":   "breadthfirst",
}

// Layouts returns the accepted layout names, sorted.
func Layouts() []string {
	names := make([]string, 0, len(cytoscapeLayouts))
	for name := range cytoscapeLayouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type pageData struct {
	Title     string
	Elements  template.JS
	Layout    string
	NodeCount int
	EdgeCount int
}

// GenerateHTML renders graph as a self-contained Cytoscape.js page. Clicking
// a record lists what it cites and what cites it within the plot.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if opts.Layout == "" {
		opts.Layout = DefaultOptions().Layout
	}
	layout, ok := cytoscapeLayouts[opts.Layout]
	if !ok {
		return "", fmt.Errorf("invalid layout %q: must be one of %s", opts.Layout, strings.Join(Layouts(), ", "))
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	elements, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, pageData{
		Title:     opts.Title,
		Elements:  template.JS(elements),
		Layout:    layout,
		NodeCount: len(graph.Nodes),
		EdgeCount: len(graph.Edges),
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
<style>
  body { margin: 0; display: flex; height: 100vh; font: 13px sans-serif; }
  #cy { flex: 1; }
  aside { width: 260px; padding: 12px; border-left: 1px solid #ddd; overflow-y: auto; }
  aside h1 { font-size: 15px; margin: 0 0 4px; }
  aside h2 { font-size: 13px; margin: 14px 0 4px; }
  aside ul { margin: 0; padding-left: 16px; }
  .muted { color: #777; }
</style>
</head>
<body>
<div id="cy"></div>
<aside>
  <h1>{{.Title}}</h1>
  <div class="muted">{{.NodeCount}} records, {{.EdgeCount}} citations</div>
  <div id="record" class="muted">{{if eq .NodeCount 0}}No citations selected.{{else}}Select a record.{{end}}</div>
</aside>
<script>
  const cy = cytoscape({
    container: document.getElementById('cy'),
    elements: {{.Elements}},
    layout: { name: '{{.Layout}}', animate: false },
    style: [
      { selector: 'node', style: {
          'label': 'data(label)', 'font-size': 9, 'background-color': '#3b6ea5',
          'width': 'mapData(citedBy, 0, 20, 12, 48)', 'height': 'mapData(citedBy, 0, 20, 12, 48)' } },
      { selector: 'node[cluster]', style: { 'background-color': '#c8702a' } },
      { selector: 'edge', style: {
          'width': 1, 'line-color': '#aaa', 'target-arrow-color': '#aaa',
          'target-arrow-shape': 'triangle', 'curve-style': 'bezier' } },
      { selector: '.faded', style: { 'opacity': 0.15 } }
    ]
  });

  const panel = document.getElementById('record');

  function link(node) {
    const a = document.createElement('a');
    a.href = node.data('url');
    a.target = '_blank';
    a.textContent = node.data('label');
    return a;
  }

  function section(title, nodes) {
    const frag = document.createDocumentFragment();
    const h = document.createElement('h2');
    h.textContent = title + ' (' + nodes.length + ')';
    frag.appendChild(h);
    const ul = document.createElement('ul');
    nodes.forEach(n => {
      const li = document.createElement('li');
      li.appendChild(link(n));
      ul.appendChild(li);
    });
    frag.appendChild(ul);
    return frag;
  }

  function show(node) {
    panel.className = '';
    panel.replaceChildren(link(node));
    const meta = document.createElement('div');
    meta.className = 'muted';
    meta.textContent = [node.data('year'), node.data('cluster')].filter(Boolean).join(' / ');
    panel.appendChild(meta);
    panel.appendChild(section('Cites', node.outgoers('node')));
    panel.appendChild(section('Cited by', node.incomers('node')));
  }

  cy.on('tap', 'node', evt => {
    const node = evt.target;
    const near = node.closedNeighborhood();
    cy.elements().addClass('faded');
    near.removeClass('faded');
    show(node);
  });

  cy.on('tap', evt => {
    if (evt.target === cy) {
      cy.elements().removeClass('faded');
    }
  });
</script>
</body>
</html>`
