package assign

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/covtools/edgemark/pkg/cfg"
	"github.com/covtools/edgemark/pkg/observability"
)

// Assigner computes slot assignment tables for control-flow graphs. It is
// stateless between runs: every Run builds fresh search and allocator state,
// so one Assigner may be reused across graphs (though not concurrently with
// itself on the same logger).
type Assigner struct {
	cfg    Config
	logger *log.Logger
}

// New creates an Assigner with the given configuration.
// Returns a configuration error if validation fails; the caller must abort
// before any graph is processed.
func New(cfg Config, logger *log.Logger) (*Assigner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Assigner{cfg: cfg, logger: logger}, nil
}

// Config returns the validated configuration the assigner runs with.
func (a *Assigner) Config() Config { return a.cfg }

// Run assigns a slot rule or explicit slots to every eligible block of g.
//
// The sequence is fixed: key assignment, rule search over global shifts,
// then fallback allocation for unsolved edges and single-predecessor blocks.
// An empty graph is not an error and yields an empty table. The only runtime
// failure is slot exhaustion, which is fatal and reported with counts.
//
// The context is consulted between search passes; cancellation returns
// ctx.Err() with no partial table.
func (a *Assigner) Run(ctx context.Context, g *cfg.Graph) (*Table, error) {
	start := time.Now()
	size := a.cfg.TableSize()

	table := &Table{
		TableBits: a.cfg.TableBits,
		Keys:      make(map[string]uint32, g.BlockCount()),
		Entries:   make(map[string]Entry, g.BlockCount()),
	}

	if g.BlockCount() == 0 {
		a.logger.Warn("no instrumentation targets found")
		return table, nil
	}

	// One seedable source feeds every random draw in the run - keys, ratio
	// eligibility, and pool pops - so a fixed seed pins the whole output.
	rng := rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed^0x9e3779b97f4a7c15))

	table.Keys = assignKeys(g, a.cfg.KeyPolicy, size, rng)

	eligible := a.eligibleBlocks(g, rng, &table.Stats)

	multis := make([]string, 0, len(eligible))
	singles := make([]string, 0, len(eligible))
	entries := make([]string, 0)
	for _, id := range eligible {
		switch g.InDegree(id) {
		case 0:
			entries = append(entries, id)
		case 1:
			singles = append(singles, id)
		default:
			multis = append(multis, id)
		}
	}

	table.Stats.Blocks = g.BlockCount()
	table.Stats.Entries = len(entries)
	table.Stats.Singles = len(singles)
	table.Stats.Multis = len(multis)

	observability.Assign().OnSearchStart(ctx, len(multis))

	s := &searcher{
		ctx:       ctx,
		graph:     g,
		keys:      table.Keys,
		multis:    multis,
		tableBits: a.cfg.TableBits,
		mask:      size - 1,
		tolerance: a.cfg.Tolerance,
		budget:    a.cfg.Budget,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := s.run()
	observability.Assign().OnSearchComplete(ctx, int(res.globalShift), len(res.solved), len(res.unsolved))

	table.GlobalShift = res.globalShift
	table.Stats.Solved = len(res.solved)
	table.Stats.Unsolved = len(res.unsolved)
	table.Stats.Passes = res.passes
	table.Stats.TriplesTried = res.triplesTried
	table.Stats.RuleSlots = len(res.claimed)

	for _, id := range res.solved {
		table.Entries[id] = Entry{Kind: KindSolved, Rule: res.rules[id]}
	}

	a.logger.Debug("rule search finished",
		"global_shift", res.globalShift,
		"passes", res.passes,
		"solved", len(res.solved),
		"unsolved", len(res.unsolved),
		"triples", res.triplesTried,
		"budget_exhausted", res.budgetExhausted)

	if err := a.allocateFallback(g, table, res, entries, singles, rng); err != nil {
		observability.Assign().OnFallbackComplete(ctx, 0, err)
		return nil, err
	}
	observability.Assign().OnFallbackComplete(ctx, table.Stats.FallbackSlots, nil)

	a.logger.Info("assignment complete",
		"blocks", table.Stats.Blocks,
		"solved", table.Stats.Solved,
		"unsolved", table.Stats.Unsolved,
		"fallback_slots", table.Stats.FallbackSlots,
		"duration", time.Since(start).Round(time.Millisecond))

	return table, nil
}

// eligibleBlocks applies the instrumentation ratio. Every block gets an
// independent draw; at ratio 100 no draw is made so the rng sequence (and
// therefore the rest of the run) is identical whether or not the ratio was
// configured explicitly.
func (a *Assigner) eligibleBlocks(g *cfg.Graph, rng *rand.Rand, stats *Stats) []string {
	ids := g.BlockIDs()
	if a.cfg.InstRatio >= 100 {
		return ids
	}
	eligible := make([]string, 0, len(ids))
	for _, id := range ids {
		if rng.IntN(100) < a.cfg.InstRatio {
			eligible = append(eligible, id)
		} else {
			stats.Skipped++
		}
	}
	return eligible
}

// allocateFallback hands explicit slots to everything the rule search did
// not cover: one slot per edge of each unsolved block, one slot per
// single-predecessor block, and - under EntrySingle - one per entry block.
// Unsolved edges are served first, matching the order the original scheme
// drains the pool, so their slot draws are stable even if the entry policy
// changes.
func (a *Assigner) allocateFallback(g *cfg.Graph, table *Table, res passResult, entries, singles []string, rng *rand.Rand) error {
	required := len(singles)
	for _, id := range res.unsolved {
		required += g.InDegree(id)
	}
	if a.cfg.EntryPolicy == EntrySingle {
		required += len(entries)
	}

	alloc := newAllocator(res.claimed, a.cfg.TableSize(), rng)
	exhausted := func() error {
		return &SlotExhaustionError{
			Claimed:   len(res.claimed),
			Required:  required,
			Available: alloc.initial,
		}
	}

	for _, id := range res.unsolved {
		cur := table.Keys[id]
		edgeSlots := make(map[EdgeKey]uint32, g.InDegree(id))
		for _, p := range g.Preds(id) {
			// Predecessors sharing a key are indistinguishable at runtime
			// and share one slot.
			k := EdgeKey{Cur: cur, Pred: table.Keys[p]}
			if _, dup := edgeSlots[k]; dup {
				continue
			}
			slot, ok := alloc.pop()
			if !ok {
				return exhausted()
			}
			edgeSlots[k] = slot
		}
		table.Entries[id] = Entry{Kind: KindUnsolved, EdgeSlots: edgeSlots}
	}

	for _, id := range singles {
		slot, ok := alloc.pop()
		if !ok {
			return exhausted()
		}
		table.Entries[id] = Entry{Kind: KindSingle, Slot: slot}
	}

	if a.cfg.EntryPolicy == EntrySingle {
		for _, id := range entries {
			slot, ok := alloc.pop()
			if !ok {
				return exhausted()
			}
			table.Entries[id] = Entry{Kind: KindSingle, Slot: slot}
		}
	}

	table.Stats.FallbackSlots = alloc.popped
	return nil
}

// Describe returns a one-line human summary of a run, used by the CLI after
// assignment succeeds.
func Describe(t *Table) string {
	return fmt.Sprintf("%d blocks: %d solved, %d unsolved, %d single, %d skipped (global shift %d, %d passes)",
		t.Stats.Blocks, t.Stats.Solved, t.Stats.Unsolved, t.Stats.Singles, t.Stats.Skipped,
		t.GlobalShift, t.Stats.Passes)
}
