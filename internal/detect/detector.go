// Package detect walks the live DOM of a loaded page and produces the list
// of fillable form fields with derived label text and a stable CSS selector
// per field.
package detect

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/browser"
	"github.com/applymate/applymate/internal/form"
)

// Hidden, submit and button inputs are not fillable and are never reported.
const inputSelector = `input:not([type="hidden"]):not([type="submit"]):not([type="button"])`

// Detector converts the live DOM into form field descriptors.
type Detector struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{logger: logger}
}

// Detect returns one descriptor per fillable control, in document order per
// control kind. A failure on one element skips only that element. A page
// with no form controls yields an empty list and no error; the caller tells
// that apart from a failed navigation by the session's success flag.
func (d *Detector) Detect(page browser.Page) ([]form.Field, error) {
	fields := []form.Field{}

	kinds := []struct {
		kind  form.Kind
		tag   string
		query string
	}{
		{form.KindTextInput, "input", inputSelector},
		{form.KindTextArea, "textarea", "textarea"},
		{form.KindSelect, "select", "select"},
	}

	for _, k := range kinds {
		elements, err := page.QueryAll(k.query)
		if err != nil {
			return fields, fmt.Errorf("querying %s elements: %w", k.tag, err)
		}

		for idx, element := range elements {
			field, err := d.describe(page, element, k.kind, k.tag, idx+1)
			if err != nil {
				d.logger.Warn("skipping element",
					zap.String("tag", k.tag),
					zap.Int("position", idx+1),
					zap.Error(err),
				)
				continue
			}
			fields = append(fields, field)
		}
	}

	d.logger.Info("detected form fields", zap.Int("count", len(fields)))
	return fields, nil
}

// describe reads one element into a descriptor. Attribute read failures
// (detached nodes, navigations under our feet) abort this element only.
func (d *Detector) describe(page browser.Page, element browser.Element, kind form.Kind, tag string, occurrence int) (form.Field, error) {
	name, err := element.Attr("name")
	if err != nil {
		return form.Field{}, fmt.Errorf("reading name: %w", err)
	}
	id, err := element.Attr("id")
	if err != nil {
		return form.Field{}, fmt.Errorf("reading id: %w", err)
	}
	required, err := element.Required()
	if err != nil {
		return form.Field{}, fmt.Errorf("reading required: %w", err)
	}

	field := form.Field{
		Kind:     kind,
		Name:     name,
		ID:       id,
		Required: required,
	}

	switch kind {
	case form.KindTextInput:
		inputType, err := element.Attr("type")
		if err != nil {
			return form.Field{}, fmt.Errorf("reading type: %w", err)
		}
		if inputType == "" {
			inputType = "text"
		}
		field.InputType = inputType
		fallthrough
	case form.KindTextArea:
		placeholder, err := element.Attr("placeholder")
		if err != nil {
			return form.Field{}, fmt.Errorf("reading placeholder: %w", err)
		}
		field.Placeholder = placeholder
	case form.KindSelect:
		texts, err := element.OptionTexts()
		if err != nil {
			return form.Field{}, fmt.Errorf("reading options: %w", err)
		}
		for _, text := range texts {
			if text = strings.TrimSpace(text); text != "" {
				field.Options = append(field.Options, text)
			}
		}
	}

	field.Label = d.deriveLabel(page, element, id)
	field.Selector = Selector(tag, name, id, occurrence)

	return field, nil
}

// deriveLabel resolves the field's label through a fixed priority chain:
// explicit label[for=id], then aria-label, then the text of a wrapping
// label with the control's own value removed. Lookup failures fall through
// to the next step rather than failing the element.
func (d *Detector) deriveLabel(page browser.Page, element browser.Element, id string) string {
	if id != "" {
		if text, err := page.LabelFor(id); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text
			}
		}
	}

	if aria, err := element.Attr("aria-label"); err == nil {
		if aria = strings.TrimSpace(aria); aria != "" {
			return aria
		}
	}

	if text, err := element.AncestorLabelText(); err == nil {
		text = strings.TrimSpace(text)
		if text != "" {
			if value, err := element.Value(); err == nil && value != "" {
				text = strings.TrimSpace(strings.ReplaceAll(text, value, ""))
			}
			if text != "" {
				return text
			}
		}
	}

	return ""
}

// Selector computes the CSS selector for an element: #id when an id exists,
// tag[name=...] when a name exists, otherwise a positional tag:nth-of-type
// selector using the 1-based occurrence index among same-tag elements seen
// in this pass. The positional form is unique within one detection pass but
// is invalidated by any later DOM mutation, which is why descriptors are
// rebuilt on every page load.
func Selector(tag, name, id string, occurrence int) string {
	if id != "" {
		return "#" + id
	}
	if name != "" {
		return fmt.Sprintf("%s[name=%q]", tag, name)
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, occurrence)
}
