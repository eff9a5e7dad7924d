package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/profile"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

var testAttributes = []profile.Attribute{profile.Email, profile.Phone, profile.City}

func TestEngineMatch(t *testing.T) {
	stub := &stubGenerator{response: `{"attribute": "email", "score": 0.85}`}
	engine := NewEngine(stub, testAttributes, 0, zap.NewNop())

	attribute, score, err := engine.Match(context.Background(), "preferred contact e mail")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attribute != profile.Email {
		t.Fatalf("expected email, got %q", attribute)
	}
	if score != 0.85 {
		t.Fatalf("expected score 0.85, got %v", score)
	}

	if !strings.Contains(stub.lastPrompt, "preferred contact e mail") {
		t.Errorf("field text missing from prompt")
	}
	if !strings.Contains(stub.lastPrompt, "- email") || !strings.Contains(stub.lastPrompt, "- city") {
		t.Errorf("attribute list missing from prompt")
	}
}

func TestEngineMatchUnknownAttribute(t *testing.T) {
	stub := &stubGenerator{response: `{"attribute": "favorite_color", "score": 0.9}`}
	engine := NewEngine(stub, testAttributes, 0, zap.NewNop())

	attribute, score, err := engine.Match(context.Background(), "favorite color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attribute != profile.None || score != 0 {
		t.Errorf("unknown attribute must yield no match, got %q %v", attribute, score)
	}
}

func TestEngineMatchNone(t *testing.T) {
	stub := &stubGenerator{response: `{"attribute": "none", "score": 0.1}`}
	engine := NewEngine(stub, testAttributes, 0, zap.NewNop())

	attribute, _, err := engine.Match(context.Background(), "captcha answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attribute != profile.None {
		t.Errorf("expected none, got %q", attribute)
	}
}

func TestEngineMatchEmptyText(t *testing.T) {
	stub := &stubGenerator{response: `{"attribute": "email", "score": 0.9}`}
	engine := NewEngine(stub, testAttributes, 0, zap.NewNop())

	attribute, _, err := engine.Match(context.Background(), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attribute != profile.None {
		t.Errorf("empty text must not reach the model, got %q", attribute)
	}
	if stub.lastPrompt != "" {
		t.Error("expected no prompt to be sent")
	}
}

func TestEngineMatchGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	engine := NewEngine(stub, testAttributes, 0, zap.NewNop())

	if _, _, err := engine.Match(context.Background(), "phone"); err == nil {
		t.Fatal("expected generator error to surface")
	}
}

func TestParseResponseHandlesCodeBlock(t *testing.T) {
	raw := "```json\n{\"attribute\": \"phone\", \"score\": \"0.7\"}\n```"
	attribute, score, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attribute != profile.Phone {
		t.Fatalf("expected phone, got %q", attribute)
	}
	if score != 0.7 {
		t.Fatalf("expected score 0.7, got %v", score)
	}
}

func TestParseResponseClampsScore(t *testing.T) {
	attribute, score, err := parseResponse(`{"attribute": "city", "score": 3.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attribute != profile.City || score != 1 {
		t.Errorf("expected clamped score, got %q %v", attribute, score)
	}

	if _, score, _ := parseResponse(`{"attribute": "city", "score": "bogus"}`); score != 0 {
		t.Errorf("expected unparsable score to collapse to 0, got %v", score)
	}
}
