package emit

import (
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	g, table := assignDiamond(t)

	dot := ToDOT(g, table, Options{})

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Error("missing digraph header")
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !strings.Contains(dot, `"`+id+`"`) {
			t.Errorf("missing block %s", id)
		}
	}
	if !strings.Contains(dot, `"b" -> "d"`) {
		t.Error("missing edge b -> d")
	}
	// b and c took direct slots, a has no entry.
	if !strings.Contains(dot, "fillcolor=lightblue") {
		t.Error("single-slot blocks not highlighted")
	}
	if !strings.Contains(dot, "fillcolor=lightgrey") {
		t.Error("uninstrumented block not greyed out")
	}
}

func TestToDOTDetailed(t *testing.T) {
	g, table := assignDiamond(t)

	dot := ToDOT(g, table, Options{Detailed: true})
	if !strings.Contains(dot, "key: ") {
		t.Error("detailed labels missing keys")
	}
	if !strings.Contains(dot, "rule: ") {
		t.Error("detailed labels missing the solved rule")
	}
	if !strings.Contains(dot, "slot: ") {
		t.Error("detailed labels missing direct slots")
	}
}

func TestToDOTWithoutTable(t *testing.T) {
	g, _ := assignDiamond(t)

	dot := ToDOT(g, nil, Options{Detailed: true})
	if strings.Contains(dot, "key: ") {
		t.Error("labels should be plain IDs without a table")
	}
	if strings.Contains(dot, "fillcolor=lightgrey") {
		t.Error("blocks should keep default fill without a table")
	}
}

func TestRenderSVG(t *testing.T) {
	g, table := assignDiamond(t)

	svg, err := RenderSVG(ToDOT(g, table, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG output missing <svg> tag")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG("this is not dot {{{"); err == nil {
		t.Error("RenderSVG should return an error for invalid DOT")
	}
}
