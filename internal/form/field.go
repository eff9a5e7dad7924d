// Package form defines the normalized representation of one discovered
// form control. Fields are value objects: built fresh on every detection
// pass and never mutated afterwards.
package form

import (
	"encoding/json"
	"fmt"
)

// Kind determines how a field is filled.
type Kind string

const (
	KindTextInput Kind = "input"
	KindTextArea  Kind = "textarea"
	KindSelect    Kind = "select"
)

// Field describes one fillable control on a page.
type Field struct {
	Kind Kind `json:"kind"`

	// InputType carries the input's type attribute (email, tel, text...).
	// Informational only, never authoritative for matching.
	InputType string `json:"input_type,omitempty"`

	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`

	// Label is the derived label text, resolved by the detector's
	// priority chain. May be empty.
	Label string `json:"label,omitempty"`

	Required bool `json:"required,omitempty"`

	// Selector resolves to exactly this element at detection time.
	// Never empty; positional when no identifying attribute exists.
	Selector string `json:"selector"`

	// Options holds the visible option texts; non-empty only for selects.
	Options []string `json:"options,omitempty"`
}

// Key returns the serialized identity under which the field is persisted.
func (f Field) Key() string {
	b, err := json.Marshal(f)
	if err != nil {
		// Field contains only plain strings and bools.
		return fmt.Sprintf("%s:%s", f.Kind, f.Selector)
	}
	return string(b)
}

func (f Field) String() string {
	return fmt.Sprintf("%s %q (label=%q name=%q)", f.Kind, f.Selector, f.Label, f.Name)
}
