package match

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/form"
	"github.com/applymate/applymate/internal/profile"
)

// DefaultMinScore is the confidence threshold below which a match is
// reported but never acted on.
const DefaultMinScore = 0.6

// Engine is an optional external matcher consulted when the built-in
// phrase engine is not confident enough about a field.
type Engine interface {
	Name() string
	Match(ctx context.Context, text string) (profile.Attribute, float64, error)
}

// Matcher scores fields against the vocabulary. The phrase engine is built
// lazily on first use; if it cannot be built the matcher degrades to
// substring scoring for the rest of the process.
type Matcher struct {
	vocab    []Entry
	minScore float64
	assist   Engine
	logger   *zap.Logger

	initOnce sync.Once
	engine   *PhraseEngine
	initErr  error
}

// NewMatcher builds a matcher over the given vocabulary. A nil assist engine
// disables external assistance; a non-positive minScore falls back to
// DefaultMinScore.
func NewMatcher(vocab []Entry, minScore float64, assist Engine, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Matcher{
		vocab:    vocab,
		minScore: minScore,
		assist:   assist,
		logger:   logger,
	}
}

// MinScore returns the configured confidence threshold.
func (m *Matcher) MinScore() float64 {
	return m.minScore
}

// Initialize compiles the phrase engine. It runs at most once; callers may
// skip it, in which case the first MatchField call pays the cost. A failed
// compilation is permanent and switches all matching to the substring
// fallback.
func (m *Matcher) Initialize() {
	m.initOnce.Do(func() {
		m.engine, m.initErr = CompilePhrases(m.vocab)
		if m.initErr != nil {
			m.logger.Warn("phrase engine unavailable, falling back to substring matching",
				zap.Error(m.initErr),
			)
		}
	})
}

// MatchField scores one field. The normalized concatenation of label,
// placeholder, name and id is matched against the phrase engine first; if
// that is not confident enough the assist engine is consulted, and the
// substring fallback has the last word. Fields with no describing text at
// all score zero.
func (m *Matcher) MatchField(ctx context.Context, field form.Field) Result {
	m.Initialize()

	result := Result{Field: field}

	text := Normalize(field.Label, field.Placeholder, field.Name, field.ID)
	if text == "" {
		return result
	}

	if m.initErr == nil {
		if attribute, score, ok := m.engine.Match(text); ok && score >= m.minScore {
			result.Attribute = attribute
			result.Score = score
			return result
		}
	}

	if m.assist != nil {
		attribute, score, err := m.assist.Match(ctx, text)
		if err != nil {
			m.logger.Warn("assist engine failed",
				zap.String("engine", m.assist.Name()),
				zap.Error(err),
			)
		} else if attribute != profile.None {
			score = math.Min(score, SemanticCeiling)
			if score >= m.minScore {
				result.Attribute = attribute
				result.Score = score
				return result
			}
		}
	}

	result.Attribute, result.Score = SubstringMatch(m.vocab, text)
	return result
}

// MatchFields scores every field and returns exactly one result per field,
// in input order.
func (m *Matcher) MatchFields(ctx context.Context, fields []form.Field) Results {
	results := make(Results, 0, len(fields))
	for _, field := range fields {
		results = append(results, m.MatchField(ctx, field))
	}

	m.logger.Info("matched form fields",
		zap.Int("matched", results.Matched()),
		zap.Int("total", len(fields)),
	)

	return results
}
