package assign

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRatio is returned when the instrumentation ratio is outside
	// [1, 100]. This is a configuration error and aborts before any graph
	// is processed.
	ErrInvalidRatio = errors.New("instrumentation ratio must be between 1 and 100")

	// ErrInvalidTableBits is returned when the configured bitmap size
	// exponent is outside the supported range.
	ErrInvalidTableBits = errors.New("table bits must be between 1 and 30")

	// ErrSlotsExhausted is returned when the free slot pool runs dry before
	// every required fallback allocation completes. The graph has more
	// distinct edges and single-predecessor blocks than the bitmap has
	// addressable slots. Errors carry counts - see [SlotExhaustionError].
	ErrSlotsExhausted = errors.New("free slot pool exhausted")
)

// SlotExhaustionError reports a fatal shortfall of bitmap slots during
// fallback allocation. It wraps [ErrSlotsExhausted] so callers can match
// with errors.Is.
type SlotExhaustionError struct {
	Claimed   int // slots claimed by solved rules before fallback began
	Required  int // fallback allocations the graph needs
	Available int // slots the pool held when fallback began
}

// Error implements the error interface.
func (e *SlotExhaustionError) Error() string {
	return fmt.Sprintf("free slot pool exhausted: %d claimed by rules, %d fallback slots required, %d were available",
		e.Claimed, e.Required, e.Available)
}

// Unwrap returns ErrSlotsExhausted for errors.Is compatibility.
func (e *SlotExhaustionError) Unwrap() error { return ErrSlotsExhausted }
