package assign

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read once at startup. They affect which blocks are
// eligible for instrumentation and whether the banner is printed - never the
// correctness of the assignment itself.
const (
	// EnvInstRatio selects the percentage of blocks to instrument (1-100).
	// Invalid values are a fatal configuration error.
	EnvInstRatio = "EDGEMARK_INST_RATIO"

	// EnvQuiet suppresses the startup banner and advisory output when set
	// to any non-empty value.
	EnvQuiet = "EDGEMARK_QUIET"
)

const (
	// DefaultTableBits is the default bitmap size exponent (2^16 slots),
	// matching the conventional coverage map size.
	DefaultTableBits = 16

	// DefaultBudget caps the total number of (globalShift, localShift,
	// offset) triples the rule search may evaluate before the remaining
	// blocks fall through to fallback allocation. Bounds the worst-case
	// O(TABLE_BITS^3 x blocks) search cost.
	DefaultBudget = 1 << 22

	// DefaultSeed is the default seed for the random key and slot draws.
	// A fixed default keeps assignment reproducible unless the caller
	// explicitly randomizes.
	DefaultSeed = uint64(42)
)

// KeyPolicy selects how blocks receive their bitmap-space keys.
type KeyPolicy int

const (
	// KeySequential assigns 0, 1, 2, ... in traversal order. Uniqueness is
	// trivially guaranteed (up to the table size) and output is fully
	// predictable, which is what tests want.
	KeySequential KeyPolicy = iota

	// KeyRandom draws each key uniformly from [0, tableSize). Two blocks
	// may collide; the rule search treats such collisions as a solvability
	// failure, not a correctness failure, so no uniqueness check is done.
	KeyRandom
)

// String returns the policy name.
func (p KeyPolicy) String() string {
	switch p {
	case KeySequential:
		return "sequential"
	case KeyRandom:
		return "random"
	default:
		return fmt.Sprintf("KeyPolicy(%d)", int(p))
	}
}

// EntryPolicy selects how blocks with zero predecessors participate in
// instrumentation. The two observed variants of this scheme disagree, so it
// is a configuration flag rather than a fixed behavior.
type EntryPolicy int

const (
	// EntryExcluded gives entry blocks no table entry at all. There is no
	// incoming edge to distinguish, and the previous-location register
	// holds nothing meaningful when an entry block runs.
	EntryExcluded EntryPolicy = iota

	// EntrySingle treats entry blocks like single-predecessor blocks:
	// each receives one direct slot from the fallback pool.
	EntrySingle
)

// String returns the policy name.
func (p EntryPolicy) String() string {
	switch p {
	case EntryExcluded:
		return "excluded"
	case EntrySingle:
		return "single"
	default:
		return fmt.Sprintf("EntryPolicy(%d)", int(p))
	}
}

// Config controls a single assignment run. The zero value is usable:
// Validate fills every unset field with its default.
type Config struct {
	// TableBits is log2 of the coverage bitmap size. Defaults to
	// DefaultTableBits.
	TableBits uint32 `json:"table_bits,omitempty" bson:"table_bits"`

	// KeyPolicy selects sequential or random block keys.
	KeyPolicy KeyPolicy `json:"key_policy,omitempty" bson:"key_policy"`

	// EntryPolicy selects how zero-predecessor blocks are treated.
	EntryPolicy EntryPolicy `json:"entry_policy,omitempty" bson:"entry_policy"`

	// InstRatio is the percentage of blocks eligible for instrumentation,
	// 1-100. 0 means 100. Values outside [1, 100] fail validation.
	InstRatio int `json:"inst_ratio,omitempty" bson:"inst_ratio"`

	// Tolerance is the fraction of multi-predecessor blocks a pass may
	// leave unsolved and still be accepted (the relaxed stop condition).
	// 0 requires a fully solved pass.
	Tolerance float64 `json:"tolerance,omitempty" bson:"tolerance"`

	// Budget caps total search triples tried. 0 means DefaultBudget;
	// negative means unlimited.
	Budget int `json:"budget,omitempty" bson:"budget"`

	// Seed feeds the single random source used for random keys, ratio
	// draws, and fallback pool pops. 0 means DefaultSeed.
	Seed uint64 `json:"seed,omitempty" bson:"seed"`
}

// Validate checks the configuration and applies defaults in place.
// It is idempotent.
func (c *Config) Validate() error {
	if c.TableBits == 0 {
		c.TableBits = DefaultTableBits
	}
	if c.TableBits > 30 {
		return fmt.Errorf("%w: got %d", ErrInvalidTableBits, c.TableBits)
	}
	if c.InstRatio == 0 {
		c.InstRatio = 100
	}
	if c.InstRatio < 1 || c.InstRatio > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidRatio, c.InstRatio)
	}
	if c.Tolerance < 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in [0, 1): got %v", c.Tolerance)
	}
	if c.Budget == 0 {
		c.Budget = DefaultBudget
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return nil
}

// TableSize returns the bitmap capacity, 2^TableBits.
func (c *Config) TableSize() uint32 { return 1 << c.TableBits }

// RatioFromEnv reads EnvInstRatio and returns the configured ratio.
// Returns 100 if the variable is unset. An unparseable or out-of-range
// value is a fatal configuration error: the caller must abort before
// processing any graph.
func RatioFromEnv() (int, error) {
	s := os.Getenv(EnvInstRatio)
	if s == "" {
		return 100, nil
	}
	ratio, err := strconv.Atoi(s)
	if err != nil || ratio < 1 || ratio > 100 {
		return 0, fmt.Errorf("bad value of %s (must be between 1 and 100): %w", EnvInstRatio, ErrInvalidRatio)
	}
	return ratio, nil
}

// QuietFromEnv reports whether EnvQuiet requests banner suppression.
func QuietFromEnv() bool { return os.Getenv(EnvQuiet) != "" }
