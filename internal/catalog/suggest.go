package catalog

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Suggester finds the known ID closest to a misspelt one, for "did you mean"
// hints in validation errors.
//
// Candidates whose Double Metaphone codes overlap the input's are ranked by
// Jaro-Winkler similarity and accepted above the phonetic threshold. When no
// phonetic candidate qualifies, pure Jaro-Winkler similarity is tried against
// every ID with the stricter fuzzy threshold. Multi-word IDs such as
// "servant girl" are compared word by word as well as whole.
//
// A Suggester is read-only after construction and safe for concurrent use.
type Suggester struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// SuggesterOption is a functional option for [NewSuggester].
type SuggesterOption func(*Suggester)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically matching ID. Default: 0.70.
func WithPhoneticThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) { s.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score when no phonetic
// match exists. Default: 0.85.
func WithFuzzyThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) { s.fuzzyThreshold = threshold }
}

// NewSuggester returns a Suggester with the default thresholds unless
// overridden by opts.
func NewSuggester(opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Suggest returns the ID in known most similar to id. ok is false when
// nothing is close enough or id is already known.
func (s *Suggester) Suggest(id string, known []string) (suggestion string, ok bool) {
	input := strings.ToLower(strings.TrimSpace(id))
	if input == "" || len(known) == 0 {
		return "", false
	}
	inputTokens := strings.Fields(input)
	inputCodes := codesForTokens(inputTokens)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, k := range known {
		lower := strings.ToLower(strings.TrimSpace(k))
		if lower == "" {
			continue
		}
		if lower == input {
			return "", false
		}
		tokens := strings.Fields(lower)
		score := bestJWScore(inputTokens, tokens, input, lower)

		if codesOverlap(inputCodes, codesForTokens(tokens)) {
			if score >= s.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = k, score, true
			}
		} else if !bestPhonetic && score >= s.fuzzyThreshold && score > bestScore {
			best, bestScore = k, score
		}
	}
	return best, best != ""
}

// hint formats a " (did you mean ...?)" suffix, or "" without a suggestion.
func (s *Suggester) hint(id string, known []string) string {
	if sug, ok := s.Suggest(id, known); ok {
		return ` (did you mean "` + sug + `"?)`
	}
	return ""
}

// codesForTokens returns the union of the Double Metaphone codes of tokens.
// Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, sec := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if sec != "" {
			codes[sec] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore returns the highest Jaro-Winkler similarity of the whole
// strings, the space-stripped strings and any pair of words.
func bestJWScore(inputTokens, knownTokens []string, inputFull, knownFull string) float64 {
	score := matchr.JaroWinkler(inputFull, knownFull, false)

	if len(inputTokens) > 1 || len(knownTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(knownTokens, ""), false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, kt := range knownTokens {
			if s := matchr.JaroWinkler(it, kt, false); s > score {
				score = s
			}
		}
	}
	return score
}
