package scenarios

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"

	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/namepool"
	"github.com/ternarybob/hubcheck/internal/pages/fakehub"
	"github.com/ternarybob/hubcheck/internal/report"
	"github.com/ternarybob/hubcheck/internal/session"
	"github.com/ternarybob/hubcheck/internal/storage/badger"
)

var testCreds = common.Credentials{Email: "admin@example.com", Password: "s3cret"}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	config := common.NewDefaultConfig()
	config.App.BaseURL = fakehub.AppOrigin
	config.App.LoginOrigin = fakehub.LoginOrigin
	config.Browser.ActionTimeout = 50 * time.Millisecond
	config.Browser.DialogTimeout = 100 * time.Millisecond
	config.Browser.SuiteTimeout = time.Minute
	config.Session.Path = filepath.Join(t.TempDir(), "sessions")
	config.Output.ResultsDir = t.TempDir()
	config.Credentials = testCreds
	return config
}

func openStorage(t *testing.T, config *common.Config) interfaces.SessionStorage {
	t.Helper()
	db, err := badger.NewBadgerDB(arbor.NewLogger(), &config.Session)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return badger.NewSessionStorage(db, arbor.NewLogger())
}

type harness struct {
	hub      *fakehub.Hub
	recorder *report.Recorder
	suite    *Suite
}

func newHarness(t *testing.T, config *common.Config, storage interfaces.SessionStorage, opts fakehub.Options) *harness {
	t.Helper()
	return newLoggedHarness(t, config, storage, opts, arbor.NewLogger())
}

func newLoggedHarness(t *testing.T, config *common.Config, storage interfaces.SessionStorage, opts fakehub.Options, logger arbor.ILogger) *harness {
	t.Helper()
	opts.Email, opts.Password = testCreds.Email, testCreds.Password
	hub := fakehub.New(opts)

	recorder, err := report.NewRecorder(config.Output.ResultsDir, config.App.BaseURL, logger)
	require.NoError(t, err)

	fixture := session.NewFixture(storage, hub, config.App.BaseURL, config.Session.TTL, logger)
	suite := NewSuite(config, hub, fixture, recorder, namepool.NewSeeded(7), logger)
	fixture.WithValidator(suite.ValidateSession)
	return &harness{hub: hub, recorder: recorder, suite: suite}
}

// captureWriter keeps the messages of every log event written to it
type captureWriter struct {
	mu       sync.Mutex
	messages []string
}

func (w *captureWriter) WithLevel(level log.Level) writers.IWriter { return w }
func (w *captureWriter) GetFilePath() string { return "" }
func (w *captureWriter) Close() error { return nil }

func (w *captureWriter) Write(p []byte) (int, error) {
	var event arbormodels.LogEvent
	if err := json.Unmarshal(p, &event); err == nil {
		w.mu.Lock()
		w.messages = append(w.messages, event.Message)
		w.mu.Unlock()
	}
	return len(p), nil
}

func (w *captureWriter) Messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.messages...)
}

func statuses(summary models.RunSummary) map[string]models.ScenarioStatus {
	out := make(map[string]models.ScenarioStatus, len(summary.Results))
	for _, r := range summary.Results {
		out[r.Scenario] = r.Status
	}
	return out
}

func TestSuiteAllScenariosPass(t *testing.T) {
	config := testConfig(t)
	h := newHarness(t, config, openStorage(t, config), fakehub.Options{})

	summary, err := h.suite.Run(context.Background(), All())
	require.NoError(t, err)

	for _, r := range summary.Results {
		assert.Equal(t, models.ScenarioPassed, r.Status, "%s: %s", r.Scenario, r.Error)
		assert.Equal(t, summary.RunID, r.RunID)
	}
	assert.True(t, summary.Succeeded())
	assert.Equal(t, 1, h.hub.Logins(), "one login serves every scenario")

	listing := h.hub.Listing()
	require.Len(t, listing, 2)
	assert.NotEqual(t, listing[0], listing[1])
	assert.Contains(t, h.hub.Clicks(), "day 7")
	assert.Contains(t, h.hub.Clicks(), "day 26")
}

func TestStepTextIsLoggedVerbatim(t *testing.T) {
	capture := &captureWriter{}
	env := &Env{
		Scenario: Scenario{ID: "validation"},
		logger:   arbor.NewLogger().WithWriters([]writers.IWriter{capture}),
	}

	env.Step("%s", "100% of fields valid")
	env.Pass("%s; Save enabled=%t", "Email 50% fixed", true)

	messages := capture.Messages()
	require.Len(t, messages, 2)
	assert.True(t, strings.HasSuffix(messages[0], " 100% of fields valid"), messages[0])
	assert.True(t, strings.HasSuffix(messages[1], " Email 50% fixed; Save enabled=true"), messages[1])
}

func TestValidationScenarioLogsStepsWithoutFormatErrors(t *testing.T) {
	config := testConfig(t)
	capture := &captureWriter{}
	logger := arbor.NewLogger().WithWriters([]writers.IWriter{capture})
	h := newLoggedHarness(t, config, openStorage(t, config), fakehub.Options{}, logger)

	chosen, err := Select("validation")
	require.NoError(t, err)
	summary, err := h.suite.Run(context.Background(), chosen)
	require.NoError(t, err)
	require.True(t, summary.Succeeded(), "%+v", summary.Results)

	messages := capture.Messages()
	for _, step := range []string{"Fixing the email", "Fixing the last name", "Fixing the first name"} {
		found := false
		for _, m := range messages {
			if strings.HasSuffix(m, " "+step) {
				found = true
			}
		}
		assert.True(t, found, "step %q not logged", step)
	}
	for _, m := range messages {
		assert.NotContains(t, m, "%!", "malformed log message %q", m)
	}
}

func TestSuiteIsolatesFailures(t *testing.T) {
	config := testConfig(t)
	h := newHarness(t, config, openStorage(t, config), fakehub.Options{NavAlwaysVisible: true})

	summary, err := h.suite.Run(context.Background(), All())
	require.NoError(t, err)

	got := statuses(summary)
	all := All()
	assert.Equal(t, models.ScenarioFailed, got[all[0].Name])
	for _, s := range all[1:] {
		assert.Equal(t, models.ScenarioPassed, got[s.Name], s.Name)
	}

	failed := summary.Results[0]
	assert.Contains(t, failed.Error, "Employees link hidden")
	require.NotEmpty(t, failed.Screenshots)
	assert.FileExists(t, failed.Screenshots[len(failed.Screenshots)-1])
	require.NotEmpty(t, failed.PageCapture)
	capture, err := os.ReadFile(failed.PageCapture)
	require.NoError(t, err)
	assert.Contains(t, string(capture), "Employees")
}

func TestSuiteDetectsBrokenValidation(t *testing.T) {
	config := testConfig(t)
	h := newHarness(t, config, openStorage(t, config), fakehub.Options{NoErrorBorder: true})

	scenarios, err := Select("modal-fields", "validation", "happy-path")
	require.NoError(t, err)
	summary, err := h.suite.Run(context.Background(), scenarios)
	require.NoError(t, err)

	got := statuses(summary)
	assert.Equal(t, models.ScenarioFailed, got[scenarios[0].Name])
	assert.Equal(t, models.ScenarioFailed, got[scenarios[1].Name])
	assert.Equal(t, models.ScenarioPassed, got[scenarios[2].Name])
}

func TestSuiteWithoutCredentials(t *testing.T) {
	config := testConfig(t)
	config.Credentials = common.Credentials{}
	h := newHarness(t, config, openStorage(t, config), fakehub.Options{})

	summary, err := h.suite.Run(context.Background(), All()[:2])
	require.NoError(t, err)
	for _, r := range summary.Results {
		assert.Equal(t, models.ScenarioFailed, r.Status)
		assert.Contains(t, r.Error, "credentials not configured")
	}
	assert.Zero(t, h.hub.Logins())
}

func TestSuiteReusesStoredSession(t *testing.T) {
	config := testConfig(t)
	storage := openStorage(t, config)

	first := newHarness(t, config, storage, fakehub.Options{})
	_, err := first.suite.Run(context.Background(), All()[:1])
	require.NoError(t, err)
	require.Equal(t, 1, first.hub.Logins())

	second := newHarness(t, config, storage, fakehub.Options{})
	summary, err := second.suite.Run(context.Background(), All()[:2])
	require.NoError(t, err)
	assert.True(t, summary.Succeeded())
	assert.Zero(t, second.hub.Logins(), "cookies from the store authenticate the new browser")
}

func TestSuiteStoppedContextSkipsScenarios(t *testing.T) {
	config := testConfig(t)
	h := newHarness(t, config, openStorage(t, config), fakehub.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := h.suite.Run(ctx, All())
	require.NoError(t, err)

	_, _, skipped := summary.Counts()
	assert.Equal(t, len(All()), skipped)
}

func TestSuiteRequiresScenarios(t *testing.T) {
	config := testConfig(t)
	h := newHarness(t, config, openStorage(t, config), fakehub.Options{})

	_, err := h.suite.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	all, err := Select()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	picked, err := Select("happy-path", "mobile-layout")
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "mobile-layout", picked[0].ID, "run order is preserved")
	assert.Equal(t, "happy-path", picked[1].ID)

	_, err = Select("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Contains(t, err.Error(), "validation")
}

func TestBoundaryWidths(t *testing.T) {
	assert.Equal(t, 991, MobileWidth)
	assert.Equal(t, 992, DesktopWidth)
	assert.Len(t, TooLongName, 51)
}
