// Package fill writes matched profile values into live form controls. It
// only ever fills fields; submitting the form stays with the user.
package fill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/browser"
	"github.com/applymate/applymate/internal/form"
	"github.com/applymate/applymate/internal/utils"
)

var (
	// ErrEmptyValue reports a fill attempt with nothing to write.
	ErrEmptyValue = errors.New("no value to fill")
	// ErrTimeout reports a field that never became visible.
	ErrTimeout = errors.New("field did not become visible")
	// ErrWrite reports a failure while writing into a visible field.
	ErrWrite = errors.New("writing to field failed")
)

// State tracks one field through its fill lifecycle.
type State string

const (
	StatePending        State = "pending"
	StateWaitingVisible State = "waiting_visible"
	StateWriting        State = "writing"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

const (
	// DefaultTypingDelay spaces out keystrokes so per-keystroke widgets
	// (autocomplete, validation) keep up.
	DefaultTypingDelay = 50 * time.Millisecond
	// DefaultWaitTimeout bounds the wait for a field to become visible.
	DefaultWaitTimeout = 5 * time.Second
)

// Options tune how values are written into the page.
type Options struct {
	TypingDelay time.Duration
	WaitTimeout time.Duration
	SettleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.TypingDelay <= 0 {
		o.TypingDelay = DefaultTypingDelay
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	return o
}

// Assignment pairs one detected field with the profile value to write.
type Assignment struct {
	Field form.Field
	Value string
}

// Outcome is the result of one field's fill attempt.
type Outcome struct {
	Selector string
	State    State
	Err      error
}

// Filler writes values into form controls on an open page.
type Filler struct {
	page   browser.Page
	logger *zap.Logger
	opts   Options
}

func New(page browser.Page, opts Options, logger *zap.Logger) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filler{
		page:   page,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// FillField writes one value into one field. Empty values fail without
// touching the page. With force set, text controls are cleared before
// writing; without it the new value is typed or selected over whatever is
// there. The outcome's state reports where in the lifecycle the attempt
// ended.
func (f *Filler) FillField(ctx context.Context, field form.Field, value string, force bool) Outcome {
	outcome := Outcome{Selector: field.Selector, State: StatePending}

	if value == "" {
		outcome.State = StateFailed
		outcome.Err = ErrEmptyValue
		return outcome
	}
	if err := ctx.Err(); err != nil {
		outcome.State = StateFailed
		outcome.Err = err
		return outcome
	}

	outcome.State = StateWaitingVisible
	if err := f.page.WaitVisible(field.Selector, f.opts.WaitTimeout); err != nil {
		outcome.State = StateFailed
		outcome.Err = fmt.Errorf("%w: %v", ErrTimeout, err)
		return outcome
	}

	outcome.State = StateWriting
	var err error
	switch field.Kind {
	case form.KindTextInput:
		err = f.fillTextInput(field, value, force)
	case form.KindTextArea:
		err = f.fillTextArea(field, value, force)
	case form.KindSelect:
		err = f.fillSelect(field, value)
	default:
		err = fmt.Errorf("unsupported field kind %q", field.Kind)
	}
	if err != nil {
		outcome.State = StateFailed
		outcome.Err = fmt.Errorf("%w: %v", ErrWrite, err)
		return outcome
	}

	outcome.State = StateDone
	return outcome
}

// fillTextInput types the value keystroke by keystroke and verifies the
// control ends up holding it. A mismatch usually means page scripts rewrote
// the input under us.
func (f *Filler) fillTextInput(field form.Field, value string, force bool) error {
	if force {
		if err := f.page.Clear(field.Selector); err != nil {
			return fmt.Errorf("clearing input: %w", err)
		}
	}
	if err := f.page.TypeSlowly(field.Selector, value, f.opts.TypingDelay); err != nil {
		return fmt.Errorf("typing value: %w", err)
	}

	got, err := f.page.InputValue(field.Selector)
	if err != nil {
		return fmt.Errorf("verifying value: %w", err)
	}
	if got != value && !force {
		// without force the typed value lands after any pre-existing text;
		// only require our value to have arrived at all.
		f.logger.Debug("input holds more than the typed value",
			zap.String("selector", field.Selector),
		)
		return nil
	}
	if force && got != value {
		return fmt.Errorf("input holds %q after typing %q", got, value)
	}
	return nil
}

func (f *Filler) fillTextArea(field form.Field, value string, force bool) error {
	if force {
		if err := f.page.Clear(field.Selector); err != nil {
			return fmt.Errorf("clearing textarea: %w", err)
		}
	}
	if err := f.page.FillBulk(field.Selector, value); err != nil {
		return fmt.Errorf("filling textarea: %w", err)
	}
	return nil
}

// fillSelect tries the value as an option value first, then as a visible
// label. Force is meaningless for selects: choosing an option replaces the
// selection.
func (f *Filler) fillSelect(field form.Field, value string) error {
	if err := f.page.SelectByValue(field.Selector, value, f.opts.WaitTimeout); err == nil {
		return nil
	}
	if err := f.page.SelectByLabel(field.Selector, value, f.opts.WaitTimeout); err != nil {
		return fmt.Errorf("no option with value or label %q: %w", value, err)
	}
	return nil
}

// FillForm fills every assignment independently; one failed field never
// stops the rest. The returned map records success per selector.
func (f *Filler) FillForm(ctx context.Context, assignments []Assignment, force bool) (map[string]bool, error) {
	filled := make(map[string]bool, len(assignments))

	for _, assignment := range assignments {
		if err := ctx.Err(); err != nil {
			return filled, err
		}

		outcome := f.FillField(ctx, assignment.Field, assignment.Value, force)
		filled[outcome.Selector] = outcome.State == StateDone

		if outcome.Err != nil {
			f.logger.Warn("field not filled",
				zap.String("selector", outcome.Selector),
				zap.String("state", string(outcome.State)),
				zap.Error(outcome.Err),
			)
		} else {
			f.logger.Debug("field filled",
				zap.String("selector", outcome.Selector),
				zap.String("label", assignment.Field.Label),
			)
		}

		if f.opts.SettleDelay > 0 {
			if err := utils.WaitFor(ctx, f.opts.SettleDelay); err != nil {
				return filled, err
			}
		}
	}

	success := 0
	for _, ok := range filled {
		if ok {
			success++
		}
	}
	f.logger.Info("filled form fields",
		zap.Int("filled", success),
		zap.Int("total", len(assignments)),
	)

	return filled, nil
}
