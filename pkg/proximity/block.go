package proximity

import "slices"

// Block is one speech unit of the script: a paragraph, verse or line spoken
// by a single character.
type Block struct {
	BookID      string
	Chapter     int
	CharacterID string
}

// Compile-time interface check.
var _ Calculator = (*BlockCalculator)(nil)

// BlockCalculator measures proximity as the number of intervening blocks
// between two characters speaking in the same book. Conflicts never span
// book boundaries. It is read-only after construction and safe for
// concurrent use.
type BlockCalculator struct {
	books     [][]string
	threshold int
}

// CalculatorOption configures a [BlockCalculator].
type CalculatorOption func(*BlockCalculator)

// WithThreshold sets the acceptable weighted block count. The default is
// [DefaultThreshold].
func WithThreshold(blocks int) CalculatorOption {
	return func(c *BlockCalculator) {
		if blocks > 0 {
			c.threshold = blocks
		}
	}
}

// NewBlockCalculator indexes blocks by book, preserving script order.
func NewBlockCalculator(blocks []Block, opts ...CalculatorOption) *BlockCalculator {
	c := &BlockCalculator{threshold: DefaultThreshold}
	for _, o := range opts {
		o(c)
	}

	index := make(map[string]int)
	for _, b := range blocks {
		i, ok := index[b.BookID]
		if !ok {
			i = len(c.books)
			index[b.BookID] = i
			c.books = append(c.books, nil)
		}
		c.books[i] = append(c.books[i], b.CharacterID)
	}
	return c
}

// Threshold returns the acceptable weighted block count.
func (c *BlockCalculator) Threshold() int { return c.threshold }

// MinimumProximity implements [Calculator].
func (c *BlockCalculator) MinimumProximity(characterIDs []string) Proximity {
	best := Perfect(c.threshold)
	if len(characterIDs) < 2 {
		return best
	}

	set := make(map[string]struct{}, len(characterIDs))
	for _, id := range characterIDs {
		set[id] = struct{}{}
	}
	if len(set) < 2 {
		return best
	}

	for _, book := range c.books {
		lastIdx := -1
		lastChar := ""
		for i, char := range book {
			if _, ok := set[char]; !ok {
				continue
			}
			// Only the most recent set member matters: an earlier block of a
			// different character is always further away.
			if lastIdx >= 0 && lastChar != char {
				if d := i - lastIdx - 1; d < best.Blocks {
					best.Blocks = d
					best.FirstCharacter = lastChar
					best.SecondCharacter = char
				}
			}
			lastIdx = i
			lastChar = char
		}
		if best.Blocks == 0 {
			break
		}
	}
	return best
}

// Characters returns the distinct character IDs appearing in the script,
// sorted.
func (c *BlockCalculator) Characters() []string {
	seen := make(map[string]struct{})
	for _, book := range c.books {
		for _, ch := range book {
			seen[ch] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}
