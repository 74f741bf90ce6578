package pages

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/oracle"
)

// DashboardPage covers the dashboard layout: the sidebar and its Employees link
type DashboardPage struct {
	driver   Driver
	timeouts Timeouts
	logger   arbor.ILogger
}

func NewDashboardPage(driver Driver, timeouts Timeouts, logger arbor.ILogger) *DashboardPage {
	return &DashboardPage{driver: driver, timeouts: timeouts.withDefaults(), logger: logger}
}

// Visit loads the dashboard
func (p *DashboardPage) Visit(ctx context.Context) error {
	return within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.Navigate(ctx, DashboardPath)
	})
}

// VerifyOnDashboard asserts the current URL is the dashboard
func (p *DashboardPage) VerifyOnDashboard(ctx context.Context) error {
	return eventually(ctx, p.timeouts.Action, "url containing "+DashboardPath, func(ctx context.Context) (bool, string, error) {
		location, err := p.driver.Location(ctx)
		return strings.Contains(location, DashboardPath), location, err
	})
}

// AssertEmployeesLinkVisible waits for the Employees link to be visible
func (p *DashboardPage) AssertEmployeesLinkVisible(ctx context.Context) error {
	return eventually(ctx, p.timeouts.Action, "Employees link visible", func(ctx context.Context) (bool, string, error) {
		state, err := p.ObserveNav(ctx)
		return state.Present && state.Visible, describeNav(state), err
	})
}

// AssertEmployeesLinkHidden passes when the link is absent from the DOM or
// present but not rendered. It checks once and does not wait.
func (p *DashboardPage) AssertEmployeesLinkHidden(ctx context.Context) error {
	state, err := p.ObserveNav(ctx)
	if err != nil {
		return err
	}
	if state.Present && state.Visible {
		return assertionf("expected Employees link hidden, observed %s", describeNav(state))
	}
	return nil
}

// ObserveNav reads the Employees link state from a DOM snapshot, falling
// back to the live page for rendered visibility only when the link exists.
func (p *DashboardPage) ObserveNav(ctx context.Context) (oracle.NavState, error) {
	var state oracle.NavState
	err := within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		html, err := p.driver.HTML(ctx)
		if err != nil {
			return err
		}
		snap, err := browser.ParseSnapshot(html)
		if err != nil {
			return err
		}
		if !snap.HasText("a", "Employees") {
			return nil
		}
		state.Present, state.Visible, err = p.driver.Visibility(ctx, EmployeesLink)
		return err
	})
	return state, err
}

// AssertLayoutFor resizes the viewport and checks the nav against the
// responsive model. It returns the layout the width selects.
func (p *DashboardPage) AssertLayoutFor(ctx context.Context, width, height int) (oracle.Layout, error) {
	layout := oracle.LayoutFor(width)
	if err := within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.SetViewport(ctx, width, height)
	}); err != nil {
		return layout, err
	}

	p.logger.Debug().
		Int("width", width).
		Int("height", height).
		Str("layout", layout.String()).
		Msg("Viewport set")

	if layout.NavVisible() {
		return layout, p.AssertEmployeesLinkVisible(ctx)
	}
	return layout, p.AssertEmployeesLinkHidden(ctx)
}

// OpenEmployees follows the sidebar link to the employee hub
func (p *DashboardPage) OpenEmployees(ctx context.Context) error {
	if err := p.AssertEmployeesLinkVisible(ctx); err != nil {
		return err
	}
	if err := within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.Click(ctx, EmployeesLink)
	}); err != nil {
		return err
	}
	return within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.WaitURLContains(ctx, EmployeeHubPath)
	})
}

func describeNav(s oracle.NavState) string {
	switch {
	case !s.Present:
		return "absent"
	case s.Visible:
		return "visible"
	default:
		return "present but hidden"
	}
}
