package form

import (
	"encoding/json"
	"testing"
)

func TestKeyRoundTrips(t *testing.T) {
	field := Field{
		Kind:     KindSelect,
		Name:     "education",
		Selector: `select[name="education"]`,
		Required: true,
		Options:  []string{"Bachelor's", "Master's", "Ph.D."},
	}

	var decoded Field
	if err := json.Unmarshal([]byte(field.Key()), &decoded); err != nil {
		t.Fatalf("key is not valid json: %v", err)
	}

	if decoded.Selector != field.Selector {
		t.Errorf("selector lost in round trip: %q", decoded.Selector)
	}
	if len(decoded.Options) != 3 {
		t.Errorf("options lost in round trip: %v", decoded.Options)
	}
}

func TestKeyIsStable(t *testing.T) {
	field := Field{Kind: KindTextInput, InputType: "email", Selector: "#email"}

	if field.Key() != field.Key() {
		t.Fatal("key must be deterministic for identical fields")
	}
}
