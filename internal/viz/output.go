package viz

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Format is an output file format.
type Format string

// Supported output formats.
const (
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// FormatForPath picks the output format from the file extension. Unknown
// extensions produce DOT text.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return FormatSVG
	case ".png":
		return FormatPNG
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatDOT
	}
}

// RenderImage lays out a DOT document with Graphviz and renders it as SVG or PNG.
func RenderImage(ctx context.Context, dot string, format Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the graph in the format implied by path and writes it.
func (g *DotGraph) WriteFile(ctx context.Context, path string, htmlOpts HTMLOptions) error {
	var data []byte
	switch format := FormatForPath(path); format {
	case FormatSVG, FormatPNG:
		img, err := RenderImage(ctx, g.Render(), format)
		if err != nil {
			return err
		}
		data = img
	case FormatHTML:
		page, err := GenerateHTML(g.GraphData(), htmlOpts)
		if err != nil {
			return err
		}
		data = []byte(page)
	default:
		data = []byte(g.Render())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	return nil
}
