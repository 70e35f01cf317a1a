// Package mock provides test doubles for the proximity package interfaces.
//
// Calculator returns scripted block counts keyed by the sorted, comma-joined
// character set, so tests can force the generator towards particular groups:
//
//	calc := mock.NewCalculator(30)
//	calc.Set(10, "Peter", "John")
//	calc.MinimumProximity([]string{"John", "Peter"}) // 10 blocks
package mock

import (
	"slices"
	"strings"
	"sync"

	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
)

// Calculator is a mock implementation of proximity.Calculator.
type Calculator struct {
	mu sync.Mutex

	// Threshold is copied into every returned Proximity.
	Threshold int

	// Default is the block count for sets without a scripted value and
	// without a Func. Zero means proximity.Max.
	Default int

	// Func, if non-nil, is consulted for sets without a scripted value.
	Func func(characterIDs []string) int

	values map[string]int

	// Calls records every character set passed to MinimumProximity, sorted.
	Calls [][]string
}

// NewCalculator returns a Calculator with the given acceptance threshold.
func NewCalculator(threshold int) *Calculator {
	return &Calculator{Threshold: threshold, values: make(map[string]int)}
}

// Set scripts the block count returned for exactly the given character set.
func (c *Calculator) Set(blocks int, characterIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]int)
	}
	c.values[key(characterIDs)] = blocks
}

// MinimumProximity records the call and returns the scripted value.
func (c *Calculator) MinimumProximity(characterIDs []string) proximity.Proximity {
	sorted := slices.Clone(characterIDs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	c.mu.Lock()
	c.Calls = append(c.Calls, sorted)
	blocks, ok := c.values[strings.Join(sorted, ",")]
	c.mu.Unlock()

	if !ok {
		switch {
		case c.Func != nil:
			blocks = c.Func(sorted)
		case c.Default != 0:
			blocks = c.Default
		default:
			blocks = proximity.Max
		}
	}
	if len(sorted) < 2 {
		blocks = proximity.Max
	}

	p := proximity.Perfect(c.Threshold)
	p.Blocks = blocks
	if len(sorted) >= 2 && blocks != proximity.Max {
		p.FirstCharacter, p.SecondCharacter = sorted[0], sorted[1]
	}
	return p
}

// Reset clears all recorded calls. Thread-safe.
func (c *Calculator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
}

func key(ids []string) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return strings.Join(slices.Compact(sorted), ",")
}

// Ensure Calculator implements proximity.Calculator at compile time.
var _ proximity.Calculator = (*Calculator)(nil)
