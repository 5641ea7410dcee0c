package assign

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/covtools/edgemark/pkg/cfg"
)

// buildGraph constructs a graph from block IDs and edges, failing the test on
// any construction error.
func buildGraph(t *testing.T, blocks []string, edges [][2]string) *cfg.Graph {
	t.Helper()
	g := cfg.New(nil)
	for _, id := range blocks {
		if err := g.AddBlock(cfg.Block{ID: id}); err != nil {
			t.Fatalf("AddBlock(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(cfg.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%s->%s): %v", e[0], e[1], err)
		}
	}
	return g
}

// diamond is the canonical a->{b,c}->d shape: one entry, two single-pred
// blocks, one multi-pred join.
func diamond(t *testing.T) *cfg.Graph {
	t.Helper()
	return buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
}

func mustRun(t *testing.T, cfg Config, g *cfg.Graph) *Table {
	t.Helper()
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table, err := a.Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return table
}

func TestRunDiamond(t *testing.T) {
	g := diamond(t)
	table := mustRun(t, Config{TableBits: 4}, g)

	// With sequential keys 0..3 the join solves on the very first triple of
	// the first pass: rule (1, 1) under global shift 1 maps the two edges to
	// slots 0 and 3.
	if table.GlobalShift != 1 {
		t.Errorf("GlobalShift = %d, want 1", table.GlobalShift)
	}
	d, ok := table.Entries["d"]
	if !ok || d.Kind != KindSolved {
		t.Fatalf("entry d = %+v, want solved", d)
	}
	if d.Rule != (Rule{LocalShift: 1, Offset: 1}) {
		t.Errorf("rule = %+v, want {1 1}", d.Rule)
	}

	if slot, ok := table.EdgeSlot("d", table.Keys["b"]); !ok || slot != 0 {
		t.Errorf("EdgeSlot(d, b) = %d, %v; want 0, true", slot, ok)
	}
	if slot, ok := table.EdgeSlot("d", table.Keys["c"]); !ok || slot != 3 {
		t.Errorf("EdgeSlot(d, c) = %d, %v; want 3, true", slot, ok)
	}

	// b and c are single-pred: each gets one direct slot, nonzero and
	// disjoint from the rule's claimed slots.
	for _, id := range []string{"b", "c"} {
		e, ok := table.Entries[id]
		if !ok || e.Kind != KindSingle {
			t.Fatalf("entry %s = %+v, want single", id, e)
		}
		if e.Slot == 0 || e.Slot == 3 || e.Slot >= table.TableSize() {
			t.Errorf("slot %s = %d, want in (0, 16) excluding 3", id, e.Slot)
		}
	}
	if table.Entries["b"].Slot == table.Entries["c"].Slot {
		t.Errorf("b and c share slot %d", table.Entries["b"].Slot)
	}

	// The entry block is excluded by default.
	if _, ok := table.Entries["a"]; ok {
		t.Error("entry block a should have no table entry under EntryExcluded")
	}

	want := Stats{
		Blocks: 4, Entries: 1, Singles: 2, Multis: 1,
		Solved: 1, Unsolved: 0, Passes: 1, TriplesTried: 1,
		RuleSlots: 2, FallbackSlots: 2,
	}
	if table.Stats != want {
		t.Errorf("stats = %+v, want %+v", table.Stats, want)
	}

	if err := table.Verify(g); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRunEntrySingle(t *testing.T) {
	g := diamond(t)
	table := mustRun(t, Config{TableBits: 4, EntryPolicy: EntrySingle}, g)

	e, ok := table.Entries["a"]
	if !ok || e.Kind != KindSingle {
		t.Fatalf("entry a = %+v, want single", e)
	}
	if e.Slot == 0 {
		t.Error("entry block received reserved slot 0")
	}
	if table.Stats.FallbackSlots != 3 {
		t.Errorf("FallbackSlots = %d, want 3", table.Stats.FallbackSlots)
	}
	if err := table.Verify(g); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRunWideJoinSolved(t *testing.T) {
	// j has three predecessors with keys 1, 2, and 4 (x is padding to push
	// p3's key to 4). Under global shift 1 those keys project to 0, 1, and 2,
	// so the very first triple separates all three edges.
	g := buildGraph(t,
		[]string{"a", "p1", "p2", "x", "p3", "j"},
		[][2]string{
			{"a", "p1"}, {"a", "p2"}, {"a", "p3"},
			{"p1", "j"}, {"p2", "j"}, {"p3", "j"},
		},
	)
	table := mustRun(t, Config{TableBits: 4}, g)

	j, ok := table.Entries["j"]
	if !ok || j.Kind != KindSolved {
		t.Fatalf("entry j = %+v, want solved", j)
	}
	if j.Rule != (Rule{LocalShift: 1, Offset: 1}) {
		t.Errorf("rule = %+v, want {1 1}", j.Rule)
	}
	if table.GlobalShift != 1 {
		t.Errorf("GlobalShift = %d, want 1", table.GlobalShift)
	}

	// Rule slots for the three edges: ((5>>1) ^ ((pred>>1)+1)) & 15.
	wantSlots := map[string]uint32{"p1": 3, "p2": 0, "p3": 1}
	seen := make(map[uint32]bool)
	for pred, want := range wantSlots {
		slot, ok := table.EdgeSlot("j", table.Keys[pred])
		if !ok || slot != want {
			t.Errorf("EdgeSlot(j, %s) = %d, %v; want %d, true", pred, slot, ok, want)
		}
		if seen[slot] {
			t.Errorf("slot %d assigned to more than one edge of j", slot)
		}
		seen[slot] = true
	}

	want := Stats{
		Blocks: 6, Entries: 2, Singles: 3, Multis: 1,
		Solved: 1, Unsolved: 0, Passes: 1, TriplesTried: 1,
		RuleSlots: 3, FallbackSlots: 3,
	}
	if table.Stats != want {
		t.Errorf("stats = %+v, want %+v", table.Stats, want)
	}
	if err := table.Verify(g); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRunWideJoinFallback(t *testing.T) {
	// j's predecessors carry keys 1, 2, and 3. Keys 2 and 3 collapse under
	// every global shift (2>>1 == 3>>1, and all three vanish from shift 2 on),
	// so no rule can separate the edges and all three fall back to explicit
	// slots.
	g := buildGraph(t,
		[]string{"a", "p1", "p2", "p3", "j"},
		[][2]string{
			{"a", "p1"}, {"a", "p2"}, {"a", "p3"},
			{"p1", "j"}, {"p2", "j"}, {"p3", "j"},
		},
	)
	table := mustRun(t, Config{TableBits: 4}, g)

	j, ok := table.Entries["j"]
	if !ok || j.Kind != KindUnsolved {
		t.Fatalf("entry j = %+v, want unsolved", j)
	}
	if len(j.EdgeSlots) != 3 {
		t.Fatalf("edge slots = %d, want 3", len(j.EdgeSlots))
	}
	seen := make(map[uint32]bool)
	for k, slot := range j.EdgeSlots {
		if slot == 0 || slot >= table.TableSize() {
			t.Errorf("edge %+v slot = %d, want in [1, %d)", k, slot, table.TableSize())
		}
		if seen[slot] {
			t.Errorf("slot %d assigned to more than one edge of j", slot)
		}
		seen[slot] = true
	}

	want := Stats{
		Blocks: 5, Entries: 1, Singles: 3, Multis: 1,
		Solved: 0, Unsolved: 1, Passes: 4, TriplesTried: 64,
		RuleSlots: 0, FallbackSlots: 6,
	}
	if table.Stats != want {
		t.Errorf("stats = %+v, want %+v", table.Stats, want)
	}
	if err := table.Verify(g); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRunToleranceAcceptsPartialPass(t *testing.T) {
	// d is solvable; f has two predecessors with colliding keys (sequential
	// keys wrap at table size 4: a and e both get key 0), so no rule can
	// separate its edges.
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e", "f"},
		[][2]string{{"b", "d"}, {"c", "d"}, {"a", "f"}, {"e", "f"}},
	)

	t.Run("Strict", func(t *testing.T) {
		table := mustRun(t, Config{TableBits: 2}, g)

		// No pass ever solves f, so every global shift is tried and the last
		// pass is kept best-effort.
		if table.Stats.Passes != 2 {
			t.Errorf("passes = %d, want 2", table.Stats.Passes)
		}
		if table.Stats.Unsolved != 2 {
			t.Errorf("unsolved = %d, want 2", table.Stats.Unsolved)
		}
		if err := table.Verify(g); err != nil {
			t.Errorf("Verify: %v", err)
		}
	})

	t.Run("Relaxed", func(t *testing.T) {
		table := mustRun(t, Config{TableBits: 2, Tolerance: 0.5}, g)

		// One unsolved block out of two multis is within tolerance, so the
		// first pass wins.
		if table.Stats.Passes != 1 {
			t.Errorf("passes = %d, want 1", table.Stats.Passes)
		}
		if table.Stats.Solved != 1 || table.Stats.Unsolved != 1 {
			t.Errorf("solved/unsolved = %d/%d, want 1/1", table.Stats.Solved, table.Stats.Unsolved)
		}
		if d := table.Entries["d"]; d.Kind != KindSolved {
			t.Errorf("entry d kind = %v, want solved", d.Kind)
		}
		if f := table.Entries["f"]; f.Kind != KindUnsolved {
			t.Errorf("entry f kind = %v, want unsolved", f.Kind)
		}
		if err := table.Verify(g); err != nil {
			t.Errorf("Verify: %v", err)
		}
	})
}

func TestRunCollidingPredKeysShareSlot(t *testing.T) {
	// f's two predecessors carry the same key, so at runtime their edges are
	// the same (cur, pred) pair: the table must hold exactly one edge slot.
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e", "f"},
		[][2]string{{"a", "f"}, {"e", "f"}},
	)
	table := mustRun(t, Config{TableBits: 2}, g)

	f, ok := table.Entries["f"]
	if !ok || f.Kind != KindUnsolved {
		t.Fatalf("entry f = %+v, want unsolved", f)
	}
	if len(f.EdgeSlots) != 1 {
		t.Errorf("edge slots = %d, want 1 (colliding predecessor keys collapse)", len(f.EdgeSlots))
	}
	if err := table.Verify(g); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRunSlotExhaustion(t *testing.T) {
	// Table size 2 leaves a single free slot (slot 0 is reserved), but the
	// chain needs three fallback slots.
	g := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}},
	)
	a, err := New(Config{TableBits: 1}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = a.Run(context.Background(), g)
	if !errors.Is(err, ErrSlotsExhausted) {
		t.Fatalf("Run error = %v, want ErrSlotsExhausted", err)
	}

	var exhErr *SlotExhaustionError
	if !errors.As(err, &exhErr) {
		t.Fatalf("error %T does not unwrap to *SlotExhaustionError", err)
	}
	if exhErr.Claimed != 0 || exhErr.Required != 3 || exhErr.Available != 1 {
		t.Errorf("counts = %+v, want {Claimed:0 Required:3 Available:1}", exhErr)
	}
}

func TestRunEmptyGraph(t *testing.T) {
	table := mustRun(t, Config{}, cfg.New(nil))
	if len(table.Keys) != 0 || len(table.Entries) != 0 {
		t.Errorf("empty graph produced %d keys, %d entries", len(table.Keys), len(table.Entries))
	}
	if table.Stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero", table.Stats)
	}
}

func TestRunDeterministic(t *testing.T) {
	g := diamond(t)
	cfgs := []Config{
		{TableBits: 8},
		{TableBits: 8, KeyPolicy: KeyRandom, Seed: 7},
		{TableBits: 8, KeyPolicy: KeyRandom, Seed: 7, InstRatio: 50},
	}
	for _, c := range cfgs {
		first := mustRun(t, c, g)
		second := mustRun(t, c, g)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("config %+v: repeated runs differ", c)
		}
	}
}

func TestRunRatioAccounting(t *testing.T) {
	g := diamond(t)

	full := mustRun(t, Config{InstRatio: 100}, g)
	if full.Stats.Skipped != 0 {
		t.Errorf("ratio 100 skipped %d blocks", full.Stats.Skipped)
	}

	half := mustRun(t, Config{InstRatio: 50, Seed: 3}, g)
	s := half.Stats
	if s.Entries+s.Singles+s.Multis+s.Skipped != s.Blocks {
		t.Errorf("classification does not cover all blocks: %+v", s)
	}
	// Keys are assigned before eligibility is drawn, so even skipped blocks
	// have one.
	if len(half.Keys) != g.BlockCount() {
		t.Errorf("keys = %d, want %d", len(half.Keys), g.BlockCount())
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Run(ctx, diamond(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{TableBits: 31}, nil); !errors.Is(err, ErrInvalidTableBits) {
		t.Errorf("error = %v, want ErrInvalidTableBits", err)
	}
	if _, err := New(Config{InstRatio: 101}, nil); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("error = %v, want ErrInvalidRatio", err)
	}
}

func TestDescribe(t *testing.T) {
	table := mustRun(t, Config{TableBits: 4}, diamond(t))
	got := Describe(table)
	want := "4 blocks: 1 solved, 0 unsolved, 2 single, 0 skipped (global shift 1, 1 passes)"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}
