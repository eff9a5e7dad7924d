package detect

import (
	"errors"
	"testing"
	"time"

	"github.com/applymate/applymate/internal/browser"
	"github.com/applymate/applymate/internal/form"
)

type fakeElement struct {
	attrs         map[string]string
	required      bool
	text          string
	value         string
	ancestorLabel string
	options       []string
	attrErr       error
}

func (e *fakeElement) Attr(name string) (string, error) {
	if e.attrErr != nil {
		return "", e.attrErr
	}
	return e.attrs[name], nil
}

func (e *fakeElement) Required() (bool, error) { return e.required, nil }

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Value() (string, error) { return e.value, nil }

func (e *fakeElement) OptionTexts() ([]string, error) { return e.options, nil }

func (e *fakeElement) AncestorLabelText() (string, error) {
	return e.ancestorLabel, nil
}

type fakePage struct {
	elements map[string][]browser.Element
	labels   map[string]string
	queryErr error
}

func (p *fakePage) QueryAll(selector string) ([]browser.Element, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return p.elements[selector], nil
}

func (p *fakePage) LabelFor(id string) (string, error) {
	return p.labels[id], nil
}

func (p *fakePage) WaitVisible(string, time.Duration) error { return nil }

func (p *fakePage) Clear(string) error { return nil }

func (p *fakePage) TypeSlowly(string, string, time.Duration) error { return nil }

func (p *fakePage) FillBulk(string, string) error { return nil }

func (p *fakePage) SelectByValue(string, string, time.Duration) error { return nil }

func (p *fakePage) SelectByLabel(string, string, time.Duration) error { return nil }

func (p *fakePage) InputValue(string) (string, error) { return "", nil }

func TestDetectEmptyPage(t *testing.T) {
	page := &fakePage{elements: map[string][]browser.Element{}}

	fields, err := New(nil).Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("expected zero fields, got %d", len(fields))
	}
}

func TestDetectBuildsDescriptors(t *testing.T) {
	page := &fakePage{
		elements: map[string][]browser.Element{
			inputSelector: {
				&fakeElement{attrs: map[string]string{
					"type":        "email",
					"id":          "email_addr",
					"placeholder": "you@example.com",
				}, required: true},
			},
			"textarea": {
				&fakeElement{attrs: map[string]string{"name": "cover_letter"}},
			},
			"select": {
				&fakeElement{
					attrs:   map[string]string{"name": "education"},
					options: []string{"", "  Bachelor's ", "Master's", "Ph.D."},
				},
			},
		},
		labels: map[string]string{"email_addr": " Email Address "},
	}

	fields, err := New(nil).Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	email := fields[0]
	if email.Kind != form.KindTextInput || email.InputType != "email" {
		t.Errorf("unexpected email field: %+v", email)
	}
	if email.Label != "Email Address" {
		t.Errorf("expected trimmed explicit label, got %q", email.Label)
	}
	if email.Selector != "#email_addr" {
		t.Errorf("expected id selector, got %q", email.Selector)
	}
	if !email.Required {
		t.Error("expected required to be carried over")
	}

	letter := fields[1]
	if letter.Kind != form.KindTextArea {
		t.Errorf("unexpected kind: %v", letter.Kind)
	}
	if letter.Selector != `textarea[name="cover_letter"]` {
		t.Errorf("expected name selector, got %q", letter.Selector)
	}

	education := fields[2]
	if len(education.Options) != 3 {
		t.Fatalf("expected empty options dropped, got %v", education.Options)
	}
	if education.Options[0] != "Bachelor's" {
		t.Errorf("expected options trimmed, got %v", education.Options)
	}
}

func TestDetectSkipsFailingElement(t *testing.T) {
	page := &fakePage{
		elements: map[string][]browser.Element{
			inputSelector: {
				&fakeElement{attrs: map[string]string{"name": "first"}},
				&fakeElement{attrErr: errors.New("node detached")},
				&fakeElement{attrs: map[string]string{"name": "last"}},
			},
		},
	}

	fields, err := New(nil).Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected failing element skipped, got %d fields", len(fields))
	}
	if fields[0].Name != "first" || fields[1].Name != "last" {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestDetectReturnsQueryError(t *testing.T) {
	page := &fakePage{queryErr: errors.New("page crashed")}

	if _, err := New(nil).Detect(page); err == nil {
		t.Fatal("expected error for page-level query failure")
	}
}

func TestDeriveLabelPriorityChain(t *testing.T) {
	d := New(nil)

	// aria-label wins when there is no explicit label element.
	page := &fakePage{labels: map[string]string{}}
	aria := &fakeElement{
		attrs:         map[string]string{"aria-label": "Phone"},
		ancestorLabel: "Wrapping label",
	}
	if got := d.deriveLabel(page, aria, "phone"); got != "Phone" {
		t.Errorf("expected aria-label, got %q", got)
	}

	// explicit label element beats aria-label.
	page = &fakePage{labels: map[string]string{"phone": "Phone Number"}}
	if got := d.deriveLabel(page, aria, "phone"); got != "Phone Number" {
		t.Errorf("expected explicit label, got %q", got)
	}

	// wrapping label text with the control's value removed.
	wrapped := &fakeElement{
		attrs:         map[string]string{},
		ancestorLabel: "City New York",
		value:         "New York",
	}
	if got := d.deriveLabel(&fakePage{}, wrapped, ""); got != "City" {
		t.Errorf("expected wrapping label minus value, got %q", got)
	}

	// nothing available yields an empty label.
	if got := d.deriveLabel(&fakePage{}, &fakeElement{attrs: map[string]string{}}, ""); got != "" {
		t.Errorf("expected empty label, got %q", got)
	}
}

func TestSelectorChain(t *testing.T) {
	if got := Selector("input", "email", "email_addr", 3); got != "#email_addr" {
		t.Errorf("id must win: %q", got)
	}
	if got := Selector("input", "email", "", 3); got != `input[name="email"]` {
		t.Errorf("name is second: %q", got)
	}
	if got := Selector("input", "", "", 3); got != "input:nth-of-type(3)" {
		t.Errorf("positional fallback: %q", got)
	}
}

func TestSelectorNeverEmpty(t *testing.T) {
	for occurrence := 1; occurrence <= 5; occurrence++ {
		if Selector("textarea", "", "", occurrence) == "" {
			t.Fatal("selector must never be empty")
		}
	}
}
