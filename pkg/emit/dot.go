package emit

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/cfg"
)

// Options configures control-flow graph rendering.
type Options struct {
	// Detailed includes keys, slots, and rule parameters in block labels.
	// When false, only the block ID is shown.
	Detailed bool
}

// ToDOT converts a control-flow graph and its assignment table to Graphviz
// DOT format. The resulting DOT string can be rendered with [RenderSVG].
//
// Block fill encodes the assignment outcome: solved blocks stay white,
// single-slot blocks are light blue, unsolved blocks salmon, and blocks
// without an entry are dashed grey.
func ToDOT(g *cfg.Graph, t *assign.Table, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, b := range g.Blocks() {
		label := fmtLabel(b, t, opts.Detailed)
		attrs := fmtAttrs(b.ID, t, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", b.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(b *cfg.Block, t *assign.Table, detailed bool) string {
	if !detailed || t == nil {
		return b.ID
	}

	parts := []string{fmt.Sprintf("key: %d", t.Keys[b.ID])}
	if e, ok := t.Entries[b.ID]; ok {
		switch e.Kind {
		case assign.KindSingle:
			parts = append(parts, fmt.Sprintf("slot: %d", e.Slot))
		case assign.KindSolved:
			parts = append(parts, fmt.Sprintf("rule: >>%d +%d", e.Rule.LocalShift, e.Rule.Offset))
		case assign.KindUnsolved:
			parts = append(parts, fmt.Sprintf("edges: %d", len(e.EdgeSlots)))
		}
	}

	return b.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(id string, t *assign.Table, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if t == nil {
		return attrs
	}
	e, ok := t.Entries[id]
	if !ok {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		return attrs
	}
	switch e.Kind {
	case assign.KindSingle:
		attrs = append(attrs, "fillcolor=lightblue")
	case assign.KindUnsolved:
		attrs = append(attrs, "fillcolor=salmon")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
