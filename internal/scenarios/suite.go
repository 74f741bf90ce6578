// Package scenarios runs the employee hub checks as an ordered suite. Each
// scenario is isolated: it gets fresh page objects and oracle, starts from
// the dashboard with the shared session, and a failure stops only itself.
package scenarios

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/namepool"
	"github.com/ternarybob/hubcheck/internal/oracle"
	"github.com/ternarybob/hubcheck/internal/pages"
	"github.com/ternarybob/hubcheck/internal/report"
	"github.com/ternarybob/hubcheck/internal/session"
)

// ErrNoCredentials is returned when a run needs to log in without credentials
var ErrNoCredentials = errors.New("credentials not configured (HUBCHECK_EMAIL/HUBCHECK_PASSWORD)")

// Env is what a scenario works with
type Env struct {
	Scenario  Scenario
	Driver    pages.Driver
	Dashboard *pages.DashboardPage
	Employees *pages.EmployeesPage
	Pool      *namepool.Pool

	recorder    *report.Recorder
	logger      arbor.ILogger
	screenshots []string
}

// Step logs the start of a scenario step
func (e *Env) Step(format string, args ...interface{}) {
	e.logger.Info().Str("scenario", e.Scenario.ID).Msg("ℹ️ " + fmt.Sprintf(format, args...))
}

// Pass logs a verified expectation
func (e *Env) Pass(format string, args ...interface{}) {
	e.logger.Info().Str("scenario", e.Scenario.ID).Msg("✓ " + fmt.Sprintf(format, args...))
}

// Screenshot saves a screenshot of the current page. Failures are logged
// and never fail the scenario.
func (e *Env) Screenshot(ctx context.Context, name string) {
	if e.recorder == nil {
		return
	}
	png, err := e.Driver.Screenshot(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Str("scenario", e.Scenario.ID).Msg("Failed to capture screenshot")
		return
	}
	path, err := e.recorder.SaveScreenshot(e.Scenario.ID, name, png)
	if err != nil {
		e.logger.Warn().Err(err).Str("scenario", e.Scenario.ID).Msg("Failed to save screenshot")
		return
	}
	e.screenshots = append(e.screenshots, path)
}

// Suite runs scenarios against one browser with one session
type Suite struct {
	driver   pages.Driver
	fixture  *session.Fixture
	recorder *report.Recorder
	pool     *namepool.Pool
	logger   arbor.ILogger

	creds       common.Credentials
	sessionName string
	loginOrigin string
	productName string
	baseURL     string
	width       int
	height      int
	timeouts    pages.Timeouts
	timeout     time.Duration
}

// NewSuite wires a suite from configuration. pool may be nil for an
// unseeded pool.
func NewSuite(config *common.Config, driver pages.Driver, fixture *session.Fixture, recorder *report.Recorder, pool *namepool.Pool, logger arbor.ILogger) *Suite {
	if pool == nil {
		pool = namepool.New()
	}
	return &Suite{
		driver:      driver,
		fixture:     fixture,
		recorder:    recorder,
		pool:        pool,
		logger:      logger,
		creds:       config.Credentials,
		sessionName: config.Session.Name,
		loginOrigin: config.App.LoginOrigin,
		productName: config.App.ProductName,
		baseURL:     config.App.BaseURL,
		width:       config.Browser.Width,
		height:      config.Browser.Height,
		timeouts:    pages.TimeoutsFromConfig(config),
		timeout:     config.Browser.SuiteTimeout,
	}
}

// Run executes scenarios in order and returns the run summary. The error is
// non-nil only when the suite itself could not run; scenario failures are
// reported in the summary.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) (models.RunSummary, error) {
	if len(scenarios) == 0 {
		return s.recorder.Finish(), errors.New("no scenarios selected")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info().
		Str("run_id", s.recorder.RunID()).
		Str("base_url", s.baseURL).
		Int("scenarios", len(scenarios)).
		Msg("Starting suite")

	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			s.recorder.Record(models.ScenarioResult{
				Scenario:  scenario.Name,
				Status:    models.ScenarioSkipped,
				StartedAt: time.Now(),
				Error:     fmt.Sprintf("suite stopped: %v", err),
			})
			continue
		}
		s.recorder.Record(s.runOne(ctx, scenario))
	}

	summary := s.recorder.Finish()
	passed, failed, skipped := summary.Counts()
	s.logger.Info().
		Int("passed", passed).
		Int("failed", failed).
		Int("skipped", skipped).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Suite finished")
	return summary, nil
}

func (s *Suite) newEnv(scenario Scenario) *Env {
	logger := s.logger
	return &Env{
		Scenario:  scenario,
		Driver:    s.driver,
		Dashboard: pages.NewDashboardPage(s.driver, s.timeouts, logger),
		Employees: pages.NewEmployeesPage(s.driver, oracle.NewForm().WithProductName(s.productName), s.timeouts, logger),
		Pool:      s.pool,
		recorder:  s.recorder,
		logger:    logger,
	}
}

func (s *Suite) runOne(ctx context.Context, scenario Scenario) models.ScenarioResult {
	env := s.newEnv(scenario)
	result := models.ScenarioResult{
		Scenario:  scenario.Name,
		StartedAt: time.Now(),
	}

	s.logger.Info().Str("scenario", scenario.ID).Msg("=== RUN " + scenario.Name)

	err := s.beforeEach(ctx, env)
	if err == nil {
		err = scenario.Run(ctx, env)
	}
	result.Duration = time.Since(result.StartedAt)

	if err != nil {
		result.Status = models.ScenarioFailed
		result.Error = err.Error()
		s.captureFailure(ctx, env, &result)
		s.logger.Error().Err(err).Str("scenario", scenario.ID).Dur("duration", result.Duration).Msg("--- FAIL " + scenario.Name)
	} else {
		result.Status = models.ScenarioPassed
		s.logger.Info().Str("scenario", scenario.ID).Dur("duration", result.Duration).Msg("--- PASS " + scenario.Name)
	}
	result.Screenshots = append(result.Screenshots, env.screenshots...)
	return result
}

// beforeEach restores the shared session, resets the viewport and opens the
// dashboard.
func (s *Suite) beforeEach(ctx context.Context, env *Env) error {
	if err := within(ctx, s.timeouts.Action, func(ctx context.Context) error {
		return s.driver.SetViewport(ctx, s.width, s.height)
	}); err != nil {
		return err
	}

	if _, err := s.fixture.Ensure(ctx, s.sessionName, s.login); err != nil {
		return err
	}

	if err := env.Dashboard.Visit(ctx); err != nil {
		return err
	}
	if err := env.Dashboard.VerifyOnDashboard(ctx); err != nil {
		return fmt.Errorf("not on the dashboard after restoring the session: %w", err)
	}
	env.Pass("Logged in and ready")
	return nil
}

func (s *Suite) login(ctx context.Context) error {
	if !s.creds.IsSet() {
		return ErrNoCredentials
	}
	return pages.NewLoginPage(s.driver, s.loginOrigin, s.timeouts, s.logger).Login(ctx, s.creds)
}

// ValidateSession is the session fixture's check for restored cookies
func (s *Suite) ValidateSession(ctx context.Context) error {
	return SessionValidator(s.driver, s.timeouts, s.logger)(ctx)
}

// SessionValidator accepts restored cookies only when they land on the
// dashboard instead of the login page.
func SessionValidator(driver pages.Driver, timeouts pages.Timeouts, logger arbor.ILogger) session.ValidateFunc {
	return func(ctx context.Context) error {
		dashboard := pages.NewDashboardPage(driver, timeouts, logger)
		if err := dashboard.Visit(ctx); err != nil {
			return err
		}
		return dashboard.VerifyOnDashboard(ctx)
	}
}

// captureFailure stores a screenshot and a markdown copy of the page. The
// scenario's context may be spent, so a fresh bounded one is used.
func (s *Suite) captureFailure(parent context.Context, env *Env, result *models.ScenarioResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 2*s.timeouts.Action)
	defer cancel()

	env.Screenshot(ctx, "failure")

	html, err := s.driver.HTML(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("scenario", env.Scenario.ID).Msg("Failed to read page for capture")
		return
	}
	path, err := s.recorder.CapturePage(env.Scenario.ID, html, s.baseURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("scenario", env.Scenario.ID).Msg("Failed to store page capture")
		return
	}
	result.PageCapture = path
}

func within(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
