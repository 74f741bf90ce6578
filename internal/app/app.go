// Package app wires the suite together: storage, the browser, the session
// fixture and per-run recording.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/namepool"
	"github.com/ternarybob/hubcheck/internal/pages"
	"github.com/ternarybob/hubcheck/internal/report"
	"github.com/ternarybob/hubcheck/internal/scenarios"
	"github.com/ternarybob/hubcheck/internal/session"
	"github.com/ternarybob/hubcheck/internal/storage/badger"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("a run is already in progress")

// Driver is what the suite needs from a browser: page interaction plus
// cookie access for the session fixture.
type Driver interface {
	pages.Driver
	interfaces.CookieJar
}

// DriverFactory starts a driver. The returned func releases it.
type DriverFactory func(config *common.Config, logger arbor.ILogger) (Driver, func(), error)

// ChromeDriver starts a chromedp browser from configuration
func ChromeDriver(config *common.Config, logger arbor.ILogger) (Driver, func(), error) {
	b, err := browser.New(config, logger)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

// Option customises an App
type Option func(*App)

// WithDriverFactory replaces the chromedp browser
func WithDriverFactory(factory DriverFactory) Option {
	return func(a *App) { a.newDriver = factory }
}

// WithPool fixes the name pool, for reproducible runs
func WithPool(pool *namepool.Pool) Option {
	return func(a *App) { a.pool = pool }
}

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB             *badger.BadgerDB
	SessionStorage interfaces.SessionStorage
	RunStorage     interfaces.RunStorage

	newDriver   DriverFactory
	driver      Driver
	closeDriver func()
	fixture     *session.Fixture
	pool        *namepool.Pool

	runMu sync.Mutex
}

// RunResult is one completed suite run with its written summaries
type RunResult struct {
	Summary      models.RunSummary
	RunDir       string
	MarkdownPath string
	HTMLPath     string
}

// New opens storage. The browser is started on the first run so commands
// that only touch the cache never launch Chrome.
func New(cfg *common.Config, logger arbor.ILogger, opts ...Option) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		newDriver: ChromeDriver,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.Debug().
		Str("base_url", cfg.App.BaseURL).
		Str("session_path", cfg.Session.Path).
		Str("results_dir", cfg.Output.ResultsDir).
		Msg("Application initialized")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Session)
	if err != nil {
		return err
	}
	a.DB = db
	a.SessionStorage = badger.NewSessionStorage(db, a.Logger)
	a.RunStorage = badger.NewRunStorage(db, a.Logger)
	return nil
}

// initBrowser starts the driver and the session fixture bound to it
func (a *App) initBrowser() error {
	if a.driver != nil {
		return nil
	}

	driver, closeDriver, err := a.newDriver(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	a.driver = driver
	a.closeDriver = closeDriver

	timeouts := pages.TimeoutsFromConfig(a.Config)
	a.fixture = session.NewFixture(a.SessionStorage, driver, a.Config.App.BaseURL, a.Config.Session.TTL, a.Logger).
		WithValidator(scenarios.SessionValidator(driver, timeouts, a.Logger))
	return nil
}

// Run executes the scenarios once and persists the result. Runs never
// overlap; a second caller gets ErrRunInProgress.
func (a *App) Run(ctx context.Context, selected []scenarios.Scenario) (*RunResult, error) {
	if !a.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer a.runMu.Unlock()

	if err := a.initBrowser(); err != nil {
		return nil, err
	}

	recorder, err := report.NewRecorder(a.Config.Output.ResultsDir, a.Config.App.BaseURL, a.Logger)
	if err != nil {
		return nil, err
	}

	suite := scenarios.NewSuite(a.Config, a.driver, a.fixture, recorder, a.pool, a.Logger)
	summary, err := suite.Run(ctx, selected)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Summary: summary, RunDir: recorder.RunDir()}
	result.MarkdownPath, result.HTMLPath, err = recorder.WriteSummary()
	if err != nil {
		a.Logger.Warn().Err(err).Str("run_id", summary.RunID).Msg("Failed to write run summary")
	}

	// History is best effort; the run itself already happened
	if err := a.RunStorage.SaveRun(context.WithoutCancel(ctx), &summary); err != nil {
		a.Logger.Warn().Err(err).Str("run_id", summary.RunID).Msg("Failed to store run history")
	}

	return result, nil
}

// ClearSessions drops every cached session and compacts the database
func (a *App) ClearSessions(ctx context.Context) (int, error) {
	removed, err := a.SessionStorage.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := a.DB.Compact(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to compact session database")
	}
	a.Logger.Info().Int("removed", removed).Msg("Session cache cleared")
	return removed, nil
}

// Close releases the browser and the database
func (a *App) Close() error {
	if a.closeDriver != nil {
		a.closeDriver()
		a.closeDriver = nil
		a.driver = nil
		a.Logger.Debug().Msg("Browser closed")
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.Logger.Debug().Msg("Database closed")
	}
	return nil
}
