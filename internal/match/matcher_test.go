package match

import (
	"context"
	"errors"
	"testing"

	"github.com/applymate/applymate/internal/form"
	"github.com/applymate/applymate/internal/profile"
)

type stubEngine struct {
	attribute profile.Attribute
	score     float64
	err       error
	calls     int
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Match(_ context.Context, _ string) (profile.Attribute, float64, error) {
	s.calls++
	return s.attribute, s.score, s.err
}

func TestMatchFieldConfidentPhraseMatch(t *testing.T) {
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, nil, nil)

	result := m.MatchField(context.Background(), form.Field{Label: "First Name"})
	if result.Attribute != profile.FirstName {
		t.Fatalf("expected first_name, got %q", result.Attribute)
	}
	if !almostEqual(result.Score, SemanticCeiling) {
		t.Errorf("unexpected score %v", result.Score)
	}
	if !result.Actionable(m.MinScore()) {
		t.Error("expected result to be actionable")
	}
}

func TestMatchFieldEmptyDescriptor(t *testing.T) {
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, nil, nil)

	result := m.MatchField(context.Background(), form.Field{})
	if result.Attribute != profile.None || result.Score != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
}

func TestMatchFieldFallsThroughToSubstring(t *testing.T) {
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, nil, nil)

	// a verbose descriptor dilutes the token share below the threshold, so
	// the substring fallback supplies the (non-actionable) guess.
	field := form.Field{
		Label:       "Email Address",
		Placeholder: "you@example.com",
		ID:          "email_addr",
	}
	result := m.MatchField(context.Background(), field)
	if result.Attribute != profile.Email {
		t.Fatalf("expected email guess, got %q", result.Attribute)
	}
	if result.Score >= m.MinScore() {
		t.Errorf("expected sub-threshold score, got %v", result.Score)
	}
	if result.Actionable(m.MinScore()) {
		t.Error("sub-threshold result must not be actionable")
	}
}

func TestMatchFieldConsultsAssistEngine(t *testing.T) {
	assist := &stubEngine{attribute: profile.Email, score: 0.99}
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, assist, nil)

	field := form.Field{
		Label:       "Email Address",
		Placeholder: "you@example.com",
		ID:          "email_addr",
	}
	result := m.MatchField(context.Background(), field)
	if assist.calls != 1 {
		t.Fatalf("expected one assist call, got %d", assist.calls)
	}
	if result.Attribute != profile.Email {
		t.Fatalf("expected email, got %q", result.Attribute)
	}
	if !almostEqual(result.Score, SemanticCeiling) {
		t.Errorf("assist score must be capped at the semantic ceiling, got %v", result.Score)
	}
}

func TestMatchFieldSkipsAssistWhenConfident(t *testing.T) {
	assist := &stubEngine{attribute: profile.Phone, score: 0.99}
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, assist, nil)

	result := m.MatchField(context.Background(), form.Field{Label: "First Name"})
	if assist.calls != 0 {
		t.Errorf("assist must not be consulted on a confident match, got %d calls", assist.calls)
	}
	if result.Attribute != profile.FirstName {
		t.Errorf("unexpected attribute %q", result.Attribute)
	}
}

func TestMatchFieldAssistFailureFallsBack(t *testing.T) {
	assist := &stubEngine{err: errors.New("quota exceeded")}
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, assist, nil)

	field := form.Field{
		Label:       "Email Address",
		Placeholder: "you@example.com",
		ID:          "email_addr",
	}
	result := m.MatchField(context.Background(), field)
	if result.Attribute != profile.Email {
		t.Errorf("expected substring fallback after assist failure, got %q", result.Attribute)
	}
}

func TestMatcherDegradesOnBrokenVocabulary(t *testing.T) {
	vocab := []Entry{
		{profile.Email, []string{"email"}},
		{profile.Phone, nil},
	}
	m := NewMatcher(vocab, DefaultMinScore, nil, nil)

	// compilation fails, matching still works through the fallback.
	result := m.MatchField(context.Background(), form.Field{Label: "Email"})
	if result.Attribute != profile.Email {
		t.Errorf("expected substring match, got %q", result.Attribute)
	}
	if !almostEqual(result.Score, FallbackCeiling) {
		t.Errorf("unexpected score %v", result.Score)
	}
}

func TestMatchFieldsPreservesCardinality(t *testing.T) {
	m := NewMatcher(DefaultVocabulary(), DefaultMinScore, nil, nil)

	fields := []form.Field{
		{Label: "First Name"},
		{},
		{Label: "Phone"},
		{Label: "Phone"},
	}
	results := m.MatchFields(context.Background(), fields)
	if len(results) != len(fields) {
		t.Fatalf("expected %d results, got %d", len(fields), len(results))
	}
	if results[2].Attribute != profile.Phone || results[3].Attribute != profile.Phone {
		t.Error("identical fields must match independently")
	}
	if results.Matched() != 3 {
		t.Errorf("expected 3 matched, got %d", results.Matched())
	}
	if len(results.Actionable(m.MinScore())) != 3 {
		t.Errorf("unexpected actionable count")
	}
}
