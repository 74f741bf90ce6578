package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/common"
)

// ErrAssertion marks an observed page state that does not match expectations
var ErrAssertion = errors.New("assertion failed")

// Driver is the browser surface the page objects need. *browser.Browser
// implements it against Chrome; fakehub implements it in memory.
type Driver interface {
	Navigate(ctx context.Context, path string) error
	Location(ctx context.Context) (string, error)
	WaitURLContains(ctx context.Context, fragment string) error
	WaitVisible(ctx context.Context, loc browser.Locator) error
	Visibility(ctx context.Context, loc browser.Locator) (present bool, visible bool, err error)
	Click(ctx context.Context, loc browser.Locator) error
	Type(ctx context.Context, loc browser.Locator, text string) error
	Clear(ctx context.Context, loc browser.Locator) error
	Backspace(ctx context.Context, loc browser.Locator, n int) error
	Focus(ctx context.Context, loc browser.Locator) error
	Blur(ctx context.Context, loc browser.Locator) error
	Value(ctx context.Context, loc browser.Locator) (string, error)
	Checked(ctx context.Context, loc browser.Locator) (bool, error)
	Enabled(ctx context.Context, loc browser.Locator) (bool, error)
	CSS(ctx context.Context, loc browser.Locator, property string) (string, error)
	Text(ctx context.Context, loc browser.Locator) (string, error)
	SetViewport(ctx context.Context, width, height int) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

var _ Driver = (*browser.Browser)(nil)

// Timeouts bound page interactions
type Timeouts struct {
	Action time.Duration // single element interaction or assertion
	Dialog time.Duration // success dialog after saving
}

// TimeoutsFromConfig reads the browser timeouts
func TimeoutsFromConfig(config *common.Config) Timeouts {
	return Timeouts{
		Action: config.Browser.ActionTimeout,
		Dialog: config.Browser.DialogTimeout,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Action <= 0 {
		t.Action = 5 * time.Second
	}
	if t.Dialog <= 0 {
		t.Dialog = 2 * t.Action
	}
	return t
}

const pollInterval = 100 * time.Millisecond

func assertionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAssertion, fmt.Sprintf(format, args...))
}

// eventually re-runs check until it passes or timeout elapses. On timeout
// the last observation is reported, or the last error when nothing was
// ever observed.
func eventually(ctx context.Context, timeout time.Duration, expectation string, check func(ctx context.Context) (bool, string, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var observed string
	var lastErr error
	for {
		ok, obs, err := check(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			observed = obs
			lastErr = nil
		}

		select {
		case <-ctx.Done():
			if lastErr != nil && observed == "" {
				return fmt.Errorf("expected %s: %w", expectation, lastErr)
			}
			return assertionf("expected %s, observed %s", expectation, observed)
		case <-ticker.C:
		}
	}
}

// within runs fn under the action timeout
func within(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
