// Package proximity defines the scene-conflict metric used to decide whether
// two characters can share one voice actor.
//
// A [Proximity] measures how close together (in script blocks) the two
// nearest distinct characters of a set speak. The further apart they are, the
// less likely an actor would have to "talk to themselves", so larger values
// are better. A [Calculator] computes the minimum proximity for an arbitrary
// set of character IDs; [BlockCalculator] is the reference implementation
// backed by the project script.
package proximity

import (
	"fmt"
	"math"
)

// Max is the block count reported for sets in which no two distinct
// characters ever speak in the same book.
const Max = math.MaxInt32

// DefaultThreshold is the minimum weighted number of intervening blocks
// considered acceptable.
const DefaultThreshold = 30

// Calculator computes the minimum proximity of a set of characters.
// Implementations must be safe for concurrent use; the generator evaluates
// independent trial configurations in parallel.
type Calculator interface {
	// MinimumProximity returns the proximity of the closest pair of distinct
	// characters in characterIDs.
	MinimumProximity(characterIDs []string) Proximity
}

// Proximity is the conflict metric for a set of characters.
// The zero value is not meaningful; use [Perfect] or a [Calculator].
type Proximity struct {
	// Blocks is the number of intervening script blocks between the closest
	// pair of distinct characters, or [Max] when no pair co-occurs.
	Blocks int

	// FirstCharacter and SecondCharacter identify the closest pair.
	FirstCharacter  string
	SecondCharacter string

	// Weighting divides Blocks before comparison. Values above 1 penalise.
	// Zero is treated as 1.
	Weighting float64

	// Threshold is the weighted block count at or above which the value is
	// acceptable. Zero means [DefaultThreshold].
	Threshold int
}

// Perfect returns a proximity with no conflicts at the given threshold.
func Perfect(threshold int) Proximity {
	return Proximity{Blocks: Max, Weighting: 1, Threshold: threshold}
}

// WithWeighting returns a copy of p using weighting w.
func (p Proximity) WithWeighting(w float64) Proximity {
	p.Weighting = w
	return p
}

// Weighted returns the block count after applying the weighting.
func (p Proximity) Weighted() float64 {
	w := p.Weighting
	if w <= 0 {
		w = 1
	}
	return float64(p.Blocks) / w
}

// IsAcceptable reports whether the weighted distance meets the threshold.
func (p Proximity) IsAcceptable() bool {
	th := p.Threshold
	if th == 0 {
		th = DefaultThreshold
	}
	return p.Weighted() >= float64(th)
}

// IsBetterThan reports whether p is strictly further apart than o.
func (p Proximity) IsBetterThan(o Proximity) bool {
	return p.Weighted() > o.Weighted()
}

// IsBetterThanOrEqualTo reports whether p is at least as far apart as o.
func (p Proximity) IsBetterThanOrEqualTo(o Proximity) bool {
	return p.Weighted() >= o.Weighted()
}

// Compare orders proximities from worst to best: it returns -1 when p is
// worse than o, +1 when better and 0 when equal.
func (p Proximity) Compare(o Proximity) int {
	a, b := p.Weighted(), o.Weighted()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (p Proximity) String() string {
	if p.Blocks == Max {
		return "no conflicts"
	}
	return fmt.Sprintf("%d blocks between %q and %q (weighted %.1f)",
		p.Blocks, p.FirstCharacter, p.SecondCharacter, p.Weighted())
}
