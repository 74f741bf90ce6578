// uitest_context.go - shared state for the live employee hub tests.
// NOTE: This is NOT a test file - it contains shared test infrastructure.

package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/app"
	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/scenarios"
)

// MaxScenarioTestTimeout bounds one test, login included
const MaxScenarioTestTimeout = 3 * time.Minute

var (
	sharedApp     *app.App
	sharedAppErr  error
	sharedAppOnce sync.Once
)

// openSharedApp starts one browser for the whole package so the login
// session is created once and reused by every test.
func openSharedApp(config *common.Config, logger arbor.ILogger) (*app.App, error) {
	sharedAppOnce.Do(func() {
		sharedApp, sharedAppErr = app.New(config, logger)
	})
	return sharedApp, sharedAppErr
}

// closeSharedApp releases the browser; called from TestMain
func closeSharedApp() error {
	if sharedApp == nil {
		return nil
	}
	return sharedApp.Close()
}

// UITestContext holds shared state for one UI test
type UITestContext struct {
	T      *testing.T
	Ctx    context.Context
	App    *app.App
	Config *common.Config
	Logger arbor.ILogger

	cancel context.CancelFunc
}

// NewUITestContext skips the test unless credentials are configured, then
// attaches it to the shared browser.
func NewUITestContext(t *testing.T, timeout time.Duration) *UITestContext {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping live UI test in short mode")
	}

	config, err := LoadTestConfig()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
	if !config.Credentials.IsSet() {
		t.Skip("HUBCHECK_EMAIL/HUBCHECK_PASSWORD not set - skipping live UI test")
	}

	logger := common.InitLogger(config)
	application, err := openSharedApp(config, logger)
	if err != nil {
		t.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return &UITestContext{
		T:      t,
		Ctx:    ctx,
		App:    application,
		Config: config,
		Logger: logger,
		cancel: cancel,
	}
}

// Cleanup releases the test's context. Call this with defer.
func (utc *UITestContext) Cleanup() {
	if utc.T.Failed() {
		utc.Log("=== TEST RESULT: FAIL ===")
	} else {
		utc.Log("=== TEST RESULT: PASS ===")
	}
	utc.cancel()
}

// Log writes a message to the test log
func (utc *UITestContext) Log(format string, args ...interface{}) {
	utc.T.Helper()
	utc.T.Logf(format, args...)
}

// RunScenario runs one scenario and fails the test with its recorded error
func (utc *UITestContext) RunScenario(id string) models.ScenarioResult {
	utc.T.Helper()

	selected, err := scenarios.Select(id)
	if err != nil {
		utc.T.Fatalf("Unknown scenario %s: %v", id, err)
	}

	result, err := utc.App.Run(utc.Ctx, selected)
	if err != nil {
		utc.T.Fatalf("Suite could not run %s: %v", id, err)
	}
	utc.Log("Artifacts: %s", result.RunDir)

	r := result.Summary.Results[0]
	for _, shot := range r.Screenshots {
		utc.Log("Screenshot: %s", shot)
	}
	if r.Status != models.ScenarioPassed {
		if r.PageCapture != "" {
			utc.Log("Page capture: %s", r.PageCapture)
		}
		utc.T.Fatalf("%s %s: %s", r.Scenario, r.Status, r.Error)
	}
	utc.Log("✓ %s passed in %s", r.Scenario, r.Duration.Round(time.Millisecond))
	return r
}
