// Package match scores detected form fields against the fixed vocabulary of
// profile attributes and assembles one match result per field.
package match

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/applymate/applymate/internal/profile"
)

const (
	// SemanticCeiling caps phrase-engine scores, reserving headroom above
	// semantic matches for exact ones.
	SemanticCeiling = 0.95
	// FallbackCeiling caps substring scores below the semantic ceiling so a
	// fallback match never outranks a semantic one at equal nominal score.
	FallbackCeiling = 0.9
)

// ErrEngineInit reports that the phrase engine could not be built; matching
// degrades to substring scoring for the rest of the process.
var ErrEngineInit = errors.New("match engine initialization failed")

// Normalize lowercases the parts, strips punctuation to whitespace (keeping
// underscores, which carry signal in names and ids) and collapses runs of
// whitespace. All parts are concatenated: any one of label, placeholder,
// name or id may carry the decisive signal.
func Normalize(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, " "))
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return ' '
	}, joined)
	return strings.Join(strings.Fields(mapped), " ")
}

type phrasePattern struct {
	attribute profile.Attribute
	tokens    []string
}

// PhraseEngine matches vocabulary phrases as contiguous token subsequences
// of a normalized field description. Patterns keep vocabulary declaration
// order; the first matching pattern wins.
type PhraseEngine struct {
	patterns []phrasePattern
}

// CompilePhrases tokenizes the vocabulary into a phrase engine. An empty
// vocabulary, an entry without attribute or an unusable phrase fail the
// compilation with ErrEngineInit.
func CompilePhrases(vocab []Entry) (*PhraseEngine, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrEngineInit)
	}

	engine := &PhraseEngine{}
	for _, entry := range vocab {
		if entry.Attribute == profile.None {
			return nil, fmt.Errorf("%w: entry without attribute", ErrEngineInit)
		}
		if len(entry.Phrases) == 0 {
			return nil, fmt.Errorf("%w: attribute %q has no phrases", ErrEngineInit, entry.Attribute)
		}
		for _, phrase := range entry.Phrases {
			tokens := strings.Fields(Normalize(phrase))
			if len(tokens) == 0 {
				return nil, fmt.Errorf("%w: attribute %q has an empty phrase", ErrEngineInit, entry.Attribute)
			}
			engine.patterns = append(engine.patterns, phrasePattern{
				attribute: entry.Attribute,
				tokens:    tokens,
			})
		}
	}

	return engine, nil
}

// Match returns the first vocabulary entry, in declaration order, whose
// phrase appears as a contiguous token subsequence of the normalized text.
// Confidence is the matched share of the text's tokens, capped at the
// semantic ceiling.
func (e *PhraseEngine) Match(text string) (profile.Attribute, float64, bool) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return profile.None, 0, false
	}

	for _, pattern := range e.patterns {
		if containsTokens(tokens, pattern.tokens) {
			score := math.Min(float64(len(pattern.tokens))/float64(len(tokens)), 1.0) * SemanticCeiling
			return pattern.attribute, score, true
		}
	}

	return profile.None, 0, false
}

func containsTokens(tokens, sub []string) bool {
	if len(sub) == 0 || len(sub) > len(tokens) {
		return false
	}
outer:
	for i := 0; i <= len(tokens)-len(sub); i++ {
		for j, want := range sub {
			if tokens[i+j] != want {
				continue outer
			}
		}
		return true
	}
	return false
}

// SubstringMatch is the deterministic fallback: the highest-scoring phrase,
// across all vocabulary entries, that appears as a substring of the
// normalized text. Scores are the phrase's share of the text length, capped
// at the fallback ceiling. Ties keep the first phrase encountered.
func SubstringMatch(vocab []Entry, text string) (profile.Attribute, float64) {
	if text == "" {
		return profile.None, 0
	}

	best := profile.None
	bestScore := 0.0

	for _, entry := range vocab {
		for _, phrase := range entry.Phrases {
			if !strings.Contains(text, phrase) {
				continue
			}
			score := math.Min(float64(len(phrase))/float64(len(text)), FallbackCeiling)
			if score > bestScore {
				bestScore = score
				best = entry.Attribute
			}
		}
	}

	return best, bestScore
}
