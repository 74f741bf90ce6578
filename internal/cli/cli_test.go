package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/app"
	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/storage/badger"
)

func init() {
	color.NoColor = true
}

func newRoot() *cobra.Command {
	configFiles = nil
	root := &cobra.Command{Use: "hubcheck", SilenceUsage: true, SilenceErrors: true}
	AddConfigFlag(root)
	root.AddCommand(RunCmd(), ScheduleCmd(), SessionCmd(), HistoryCmd(), VersionCmd())
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// writeConfig writes a config that keeps all state inside a temp dir
func writeConfig(t *testing.T) (string, *common.Config) {
	t.Helper()
	for _, name := range []string{"HUBCHECK_SESSION_PATH", "HUBCHECK_RESULTS_DIR", "HUBCHECK_LOG_OUTPUT", "HUBCHECK_BASE_URL"} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	sessions := filepath.Join(dir, "sessions")
	results := filepath.Join(dir, "results")
	path := filepath.Join(dir, "hubcheck.toml")
	content := `
[session]
path = "` + filepath.ToSlash(sessions) + `"

[logging]
level = "error"
output = ["stdout"]

[output]
results_dir = "` + filepath.ToSlash(results) + `"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := common.NewDefaultConfig()
	config.Session.Path = sessions
	config.Output.ResultsDir = results
	return path, config
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hubcheck version "+common.GetVersion())
}

func TestRunListsScenarios(t *testing.T) {
	out, err := execute(t, "run", "--list")
	require.NoError(t, err)
	for _, id := range []string{"mobile-layout", "desktop-layout", "modal-fields", "validation", "happy-path"} {
		assert.Contains(t, out, id)
	}
}

func TestRunRejectsUnknownScenario(t *testing.T) {
	_, err := execute(t, "run", "--scenario", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestScheduleRejectsFastCron(t *testing.T) {
	path, _ := writeConfig(t)
	_, err := execute(t, "--config", path, "schedule", "--cron", "* * * * *")
	assert.Error(t, err)
}

func TestSessionListAndClear(t *testing.T) {
	path, config := writeConfig(t)

	// Seed a session the way a run would leave it
	db, err := badger.NewBadgerDB(arbor.NewLogger(), &config.Session)
	require.NoError(t, err)
	storage := badger.NewSessionStorage(db, arbor.NewLogger())
	require.NoError(t, storage.SaveSession(context.Background(), &models.Session{
		Name:      config.Session.Name,
		Origin:    config.App.BaseURL,
		Cookies:   []models.Cookie{{Name: "sid", Value: "super-secret-value"}},
		CreatedAt: time.Now(),
	}))
	require.NoError(t, db.Close())

	out, err := execute(t, "--config", path, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, config.Session.Name)
	assert.Contains(t, out, "valid")
	assert.NotContains(t, out, "super-secret-value")

	out, err = execute(t, "--config", path, "session", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 cached session(s)")

	out, err = execute(t, "--config", path, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached sessions")
}

func TestHistoryCommand(t *testing.T) {
	path, config := writeConfig(t)

	out, err := execute(t, "--config", path, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")

	db, err := badger.NewBadgerDB(arbor.NewLogger(), &config.Session)
	require.NoError(t, err)
	runs := badger.NewRunStorage(db, arbor.NewLogger())
	started := time.Now().Add(-time.Hour)
	require.NoError(t, runs.SaveRun(context.Background(), &models.RunSummary{
		RunID:      "0123456789abcdef",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Results: []models.ScenarioResult{
			{Scenario: "a", Status: models.ScenarioPassed},
			{Scenario: "b", Status: models.ScenarioFailed},
		},
	}))
	require.NoError(t, db.Close())

	out, err = execute(t, "--config", path, "history", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "failed")
}

func TestDiscoverConfig(t *testing.T) {
	assert.Equal(t, []string{"a.toml", "b.toml"}, discoverConfig([]string{"a.toml", "b.toml"}))

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Nil(t, discoverConfig(nil))

	require.NoError(t, os.MkdirAll(filepath.Join("deployments", "local"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join("deployments", "local", "hubcheck.toml"), nil, 0644))
	assert.Equal(t, []string{"deployments/local/hubcheck.toml"}, discoverConfig(nil))

	require.NoError(t, os.WriteFile("hubcheck.toml", nil, 0644))
	assert.Equal(t, []string{"hubcheck.toml"}, discoverConfig(nil))
}

func TestDisplayRun(t *testing.T) {
	started := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	result := &app.RunResult{
		Summary: models.RunSummary{
			RunID:      "run-1",
			BaseURL:    "https://app.example.com",
			StartedAt:  started,
			FinishedAt: started.Add(42 * time.Second),
			Results: []models.ScenarioResult{
				{Scenario: "Desktop layout", Status: models.ScenarioPassed, Duration: 1500 * time.Millisecond},
				{Scenario: "Validation", Status: models.ScenarioFailed, Error: "border not red\nmore detail"},
				{Scenario: "Happy path", Status: models.ScenarioSkipped, Error: "suite stopped"},
			},
		},
		RunDir:   "/tmp/results/run-1",
		HTMLPath: "/tmp/results/run-1/summary.html",
	}

	var out bytes.Buffer
	displayRun(&out, result)
	text := out.String()

	assert.Contains(t, text, "✓ PASS")
	assert.Contains(t, text, "✗ FAIL")
	assert.Contains(t, text, "- SKIP")
	assert.Contains(t, text, "border not red …")
	assert.NotContains(t, text, "more detail")
	assert.Contains(t, text, "1 passed, 1 failed, 1 skipped in 42s")
	assert.Contains(t, text, "summary.html")
	assert.Equal(t, 1, strings.Count(text, "Validation"))
}
