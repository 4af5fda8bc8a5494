// Package render draws resolution plans as dependency diagrams.
//
// A plan is first converted to Graphviz DOT source with [ToDOT], then
// rendered in-process to SVG or PNG. The DOT output can also be saved
// as-is and processed with external Graphviz tools.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/cocoatly/cocoatly/pkg/resolver"
)

// Options configures plan rendering.
type Options struct {
	// Detailed includes the resolved version in node labels.
	Detailed bool

	// Existing marks these package names as already installed; they are
	// drawn with dashed grey outlines.
	Existing map[string]bool
}

// ToDOT converts a resolution plan to Graphviz DOT format. Nodes are the
// resolved packages; edges point from each package to the dependencies it
// pulled in. Optional dependencies never appear because the resolver does
// not walk them.
func ToDOT(plan *resolver.Plan, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, pkg := range plan.Packages {
		label := pkg.Name
		if opts.Detailed {
			label = pkg.Name + "\n" + pkg.Version.String()
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if opts.Existing[pkg.Name] {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", pkg.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, pkg := range plan.Packages {
		for _, dep := range pkg.Dependencies {
			if dep.Optional || plan.Package(dep.Name) == nil {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", pkg.Name, dep.Name)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG, nil)
}

func renderFormat(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the outer svg tag so the image starts at origin
// and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
