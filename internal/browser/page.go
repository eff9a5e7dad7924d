package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the subset of live-page operations the pipeline needs. It reads
// the DOM through structured accessors only; no script is evaluated in the
// page. Implementations other than the playwright-backed one exist solely
// for tests.
type Page interface {
	// QueryAll returns all elements matching the selector, in document order.
	QueryAll(selector string) ([]Element, error)
	// LabelFor returns the text of the label[for=id] element, or "" when absent.
	LabelFor(id string) (string, error)
	// WaitVisible blocks until the selector resolves to a visible element
	// or the timeout elapses.
	WaitVisible(selector string, timeout time.Duration) error
	// Clear empties the matched control.
	Clear(selector string) error
	// TypeSlowly simulates per-character typing with the given delay
	// between keystrokes.
	TypeSlowly(selector, value string, delay time.Duration) error
	// FillBulk sets the control's value in one write.
	FillBulk(selector, value string) error
	// SelectByValue selects the option whose underlying value equals value.
	SelectByValue(selector, value string, timeout time.Duration) error
	// SelectByLabel selects the option whose visible text equals label.
	SelectByLabel(selector, label string, timeout time.Duration) error
	// InputValue reads back the control's current value.
	InputValue(selector string) (string, error)
}

// Element is one DOM node, read through host-side accessors.
type Element interface {
	// Attr returns the attribute's value, or "" when absent.
	Attr(name string) (string, error)
	// Required reports the control's required property.
	Required() (bool, error)
	// Text returns the element's text content.
	Text() (string, error)
	// Value returns the control's current input value.
	Value() (string, error)
	// AncestorLabelText returns the text of the closest label ancestor,
	// or "" when the element is not wrapped in a label.
	AncestorLabelText() (string, error)
	// OptionTexts returns the raw visible texts of child option elements.
	OptionTexts() ([]string, error)
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}

	elements := make([]Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &pwElement{handle: handle})
	}
	return elements, nil
}

func (p *pwPage) LabelFor(id string) (string, error) {
	handle, err := p.page.QuerySelector(fmt.Sprintf(`label[for=%q]`, id))
	if err != nil {
		return "", err
	}
	if handle == nil {
		return "", nil
	}
	return handle.TextContent()
}

func (p *pwPage) WaitVisible(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *pwPage) Clear(selector string) error {
	return p.page.Fill(selector, "")
}

func (p *pwPage) TypeSlowly(selector, value string, delay time.Duration) error {
	return p.page.Type(selector, value, playwright.PageTypeOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}

func (p *pwPage) FillBulk(selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *pwPage) SelectByValue(selector, value string, timeout time.Duration) error {
	selected, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: &[]string{value},
	}, playwright.PageSelectOptionOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option with value %q in %q", value, selector)
	}
	return nil
}

func (p *pwPage) SelectByLabel(selector, label string, timeout time.Duration) error {
	selected, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Labels: &[]string{label},
	}, playwright.PageSelectOptionOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option with label %q in %q", label, selector)
	}
	return nil
}

func (p *pwPage) InputValue(selector string) (string, error) {
	return p.page.InputValue(selector)
}

type pwElement struct {
	handle playwright.ElementHandle
}

func (e *pwElement) Attr(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *pwElement) Required() (bool, error) {
	prop, err := e.handle.GetProperty("required")
	if err != nil {
		return false, err
	}
	value, err := prop.JSONValue()
	if err != nil {
		return false, err
	}
	required, ok := value.(bool)
	return ok && required, nil
}

func (e *pwElement) Text() (string, error) {
	return e.handle.TextContent()
}

func (e *pwElement) Value() (string, error) {
	return e.handle.InputValue()
}

func (e *pwElement) AncestorLabelText() (string, error) {
	handle, err := e.handle.QuerySelector("xpath=./ancestor::label[1]")
	if err != nil {
		return "", err
	}
	if handle == nil {
		return "", nil
	}
	return handle.TextContent()
}

func (e *pwElement) OptionTexts() ([]string, error) {
	handles, err := e.handle.QuerySelectorAll("option")
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(handles))
	for _, handle := range handles {
		text, err := handle.TextContent()
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, nil
}
