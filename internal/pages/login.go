package pages

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/common"
)

// LoginPage drives the landing page and the identity provider's login form
type LoginPage struct {
	driver      Driver
	loginOrigin string
	timeouts    Timeouts
	logger      arbor.ILogger
}

// NewLoginPage creates a login page object. loginOrigin is the identity
// provider the landing page redirects to.
func NewLoginPage(driver Driver, loginOrigin string, timeouts Timeouts, logger arbor.ILogger) *LoginPage {
	return &LoginPage{
		driver:      driver,
		loginOrigin: loginOrigin,
		timeouts:    timeouts.withDefaults(),
		logger:      logger,
	}
}

// VisitLiteAndClickLogin opens the product landing page and follows "Log in"
func (p *LoginPage) VisitLiteAndClickLogin(ctx context.Context) error {
	if err := within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.Navigate(ctx, LitePath)
	}); err != nil {
		return err
	}
	return within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.Click(ctx, LoginLink)
	})
}

// LoginOnAuthDomain fills the identity provider's form and waits for the
// redirect back to the dashboard. The password is never logged.
func (p *LoginPage) LoginOnAuthDomain(ctx context.Context, creds common.Credentials) error {
	if !creds.IsSet() {
		return fmt.Errorf("login credentials are not configured")
	}

	if err := within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		return p.driver.WaitURLContains(ctx, LoginPath)
	}); err != nil {
		return err
	}
	if err := p.verifyLoginOrigin(ctx); err != nil {
		return err
	}

	steps := []func(ctx context.Context) error{
		func(ctx context.Context) error { return p.driver.Type(ctx, UsernameBox, creds.Email) },
		func(ctx context.Context) error { return p.driver.Type(ctx, PasswordBox, creds.Password) },
		func(ctx context.Context) error { return p.driver.Click(ctx, LoginButton) },
	}
	for _, step := range steps {
		if err := within(ctx, p.timeouts.Action, step); err != nil {
			// Errors from the password step carry the locator, never the value
			return fmt.Errorf("login form: %w", err)
		}
	}

	if err := within(ctx, p.timeouts.Dialog, func(ctx context.Context) error {
		return p.driver.WaitURLContains(ctx, DashboardPath)
	}); err != nil {
		return fmt.Errorf("waiting for dashboard after login: %w", err)
	}

	p.logger.Info().Str("origin", p.loginOrigin).Msg("Logged in")
	return nil
}

// Login runs the whole flow from the landing page
func (p *LoginPage) Login(ctx context.Context, creds common.Credentials) error {
	if err := p.VisitLiteAndClickLogin(ctx); err != nil {
		return err
	}
	return p.LoginOnAuthDomain(ctx, creds)
}

func (p *LoginPage) verifyLoginOrigin(ctx context.Context) error {
	if p.loginOrigin == "" {
		return nil
	}
	want, err := url.Parse(p.loginOrigin)
	if err != nil {
		return fmt.Errorf("invalid login origin %q: %w", p.loginOrigin, err)
	}

	var location string
	if err := within(ctx, p.timeouts.Action, func(ctx context.Context) error {
		var err error
		location, err = p.driver.Location(ctx)
		return err
	}); err != nil {
		return err
	}
	got, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("invalid page location %q: %w", location, err)
	}
	if !strings.EqualFold(got.Host, want.Host) {
		return assertionf("expected login page on %s, observed %s", want.Host, got.Host)
	}
	return nil
}
