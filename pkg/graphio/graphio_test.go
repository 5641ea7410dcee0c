package graphio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/covtools/edgemark/pkg/cfg"
)

func TestMarshalGraph(t *testing.T) {
	tests := []struct {
		name       string
		build      func() *cfg.Graph
		wantBlocks int
		wantEdges  int
		check      func(t *testing.T, g Graph)
	}{
		{
			name:       "Empty",
			build:      func() *cfg.Graph { return cfg.New(nil) },
			wantBlocks: 0,
			wantEdges:  0,
		},
		{
			name: "Simple",
			build: func() *cfg.Graph {
				g := cfg.New(nil)
				g.AddBlock(cfg.Block{ID: "entry", Meta: cfg.Metadata{"function": "main"}})
				g.AddBlock(cfg.Block{ID: "exit"})
				g.AddEdge(cfg.Edge{From: "entry", To: "exit"})
				return g
			},
			wantBlocks: 2,
			wantEdges:  1,
		},
		{
			name: "PreservesMetadata",
			build: func() *cfg.Graph {
				g := cfg.New(nil)
				g.AddBlock(cfg.Block{
					ID: "bb0",
					Meta: cfg.Metadata{
						"function": "parse",
						"file":     "parse.c",
					},
				})
				return g
			},
			wantBlocks: 1,
			wantEdges:  0,
			check: func(t *testing.T, g Graph) {
				if g.Blocks[0].Meta["function"] != "parse" {
					t.Errorf("function = %v, want parse", g.Blocks[0].Meta["function"])
				}
				if g.Blocks[0].Meta["file"] != "parse.c" {
					t.Errorf("file = %v, want parse.c", g.Blocks[0].Meta["file"])
				}
			},
		},
		{
			name: "PreservesBlockOrder",
			build: func() *cfg.Graph {
				g := cfg.New(nil)
				g.AddBlock(cfg.Block{ID: "z"})
				g.AddBlock(cfg.Block{ID: "a"})
				g.AddBlock(cfg.Block{ID: "m"})
				return g
			},
			wantBlocks: 3,
			wantEdges:  0,
			check: func(t *testing.T, g Graph) {
				want := []string{"z", "a", "m"}
				for i, b := range g.Blocks {
					if b.ID != want[i] {
						t.Errorf("block[%d] = %s, want %s (insertion order must survive)", i, b.ID, want[i])
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.build()

			data, err := MarshalGraph(g)
			if err != nil {
				t.Fatalf("MarshalGraph: %v", err)
			}

			var result Graph
			if err := json.Unmarshal(data, &result); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if got := len(result.Blocks); got != tt.wantBlocks {
				t.Errorf("blocks = %d, want %d", got, tt.wantBlocks)
			}
			if got := len(result.Edges); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}

			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantBlocks int
		wantEdges  int
		wantErr    bool
		check      func(t *testing.T, g *cfg.Graph)
	}{
		{
			name:       "Empty",
			input:      `{"blocks": [], "edges": []}`,
			wantBlocks: 0,
			wantEdges:  0,
		},
		{
			name:       "Chain",
			input:      `{"blocks": [{"id": "a"}, {"id": "b"}], "edges": [{"from": "a", "to": "b"}]}`,
			wantBlocks: 2,
			wantEdges:  1,
			check: func(t *testing.T, g *cfg.Graph) {
				if g.InDegree("b") != 1 {
					t.Errorf("InDegree(b) = %d, want 1", g.InDegree("b"))
				}
			},
		},
		{
			name:    "MalformedJSON",
			input:   `{"blocks": [`,
			wantErr: true,
		},
		{
			name:    "DuplicateBlock",
			input:   `{"blocks": [{"id": "a"}, {"id": "a"}], "edges": []}`,
			wantErr: true,
		},
		{
			name:    "EmptyBlockID",
			input:   `{"blocks": [{"id": ""}], "edges": []}`,
			wantErr: true,
		},
		{
			name:    "ControlCharBlockID",
			input:   "{\"blocks\": [{\"id\": \"a\\nb\"}], \"edges\": []}",
			wantErr: true,
		},
		{
			name:    "DanglingEdge",
			input:   `{"blocks": [{"id": "a"}], "edges": [{"from": "a", "to": "ghost"}]}`,
			wantErr: true,
		},
		{
			name:       "CycleIsLegal",
			input:      `{"blocks": [{"id": "head"}, {"id": "body"}], "edges": [{"from": "head", "to": "body"}, {"from": "body", "to": "head"}]}`,
			wantBlocks: 2,
			wantEdges:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGraph(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ReadGraph succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}
			if got := g.BlockCount(); got != tt.wantBlocks {
				t.Errorf("blocks = %d, want %d", got, tt.wantBlocks)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	g := cfg.New(cfg.Metadata{"module": "demo"})
	g.AddBlock(cfg.Block{ID: "entry", Meta: cfg.Metadata{"function": "main"}})
	g.AddBlock(cfg.Block{ID: "loop"})
	g.AddBlock(cfg.Block{ID: "exit"})
	g.AddEdge(cfg.Edge{From: "entry", To: "loop"})
	g.AddEdge(cfg.Edge{From: "loop", To: "loop"})
	g.AddEdge(cfg.Edge{From: "loop", To: "exit"})

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	back, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}

	if got, want := back.BlockIDs(), g.BlockIDs(); !slices.Equal(got, want) {
		t.Errorf("block order = %v, want %v", got, want)
	}
	if back.EdgeCount() != g.EdgeCount() {
		t.Errorf("edges = %d, want %d", back.EdgeCount(), g.EdgeCount())
	}
	if b, _ := back.Block("entry"); b.Meta["function"] != "main" {
		t.Errorf("metadata lost: %v", b.Meta)
	}
	if back.Meta()["module"] != "demo" {
		t.Errorf("graph metadata lost: %v", back.Meta())
	}

	// Serializing again must produce identical bytes.
	first, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	second, err := MarshalGraph(back)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("round-trip changed serialized bytes")
	}
}

func TestLabelRoundTrip(t *testing.T) {
	in := `{"blocks": [{"id": "bb1", "label": "if.then"}], "edges": []}`
	g, err := ReadGraph(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}

	out := FromCFG(g)
	if out.Blocks[0].Label != "if.then" {
		t.Errorf("label = %q, want if.then", out.Blocks[0].Label)
	}
	if out.Blocks[0].Meta != nil {
		t.Errorf("internal label key leaked into meta: %v", out.Blocks[0].Meta)
	}
}

func TestGraphFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")

	g := cfg.New(nil)
	g.AddBlock(cfg.Block{ID: "a"})
	g.AddBlock(cfg.Block{ID: "b"})
	g.AddEdge(cfg.Edge{From: "a", To: "b"})

	if err := WriteGraphFile(g, path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}

	back, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if back.BlockCount() != 2 || back.EdgeCount() != 1 {
		t.Errorf("round trip = %d blocks, %d edges", back.BlockCount(), back.EdgeCount())
	}

	if _, err := ReadGraphFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadGraphFile succeeded on missing file")
	}
}
