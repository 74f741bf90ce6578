package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/models"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := NewRecorder(t.TempDir(), "https://app.example.com", arbor.NewLogger())
	require.NoError(t, err)
	return r
}

func TestNewRecorderCreatesRunDir(t *testing.T) {
	r := newTestRecorder(t)

	assert.Len(t, r.RunID(), 36)
	assert.True(t, strings.HasSuffix(r.RunDir(), r.RunID()[:8]))
	info, err := os.Stat(filepath.Join(r.RunDir(), "screenshots"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveScreenshotNumbersFiles(t *testing.T) {
	r := newTestRecorder(t)

	first, err := r.SaveScreenshot("Mobile layout", "dashboard", []byte("png"))
	require.NoError(t, err)
	second, err := r.SaveScreenshot("Mobile layout", "failure", []byte("png"))
	require.NoError(t, err)

	assert.Equal(t, "01-mobile-layout-dashboard.png", filepath.Base(first))
	assert.Equal(t, "02-mobile-layout-failure.png", filepath.Base(second))
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestCapturePageConvertsToMarkdown(t *testing.T) {
	r := newTestRecorder(t)

	path, err := r.CapturePage("Happy path", `<html><body><h1>Employee hub</h1><ul><li>Ben Smith</li></ul><a href="/dashboard">Home</a></body></html>`, "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "01-happy-path-page.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# Page at failure: Happy path")
	assert.Contains(t, content, "# Employee hub")
	assert.Contains(t, content, "- Ben Smith")
	assert.Contains(t, content, "[Home](https://app.example.com/dashboard)")
}

func TestCapturePageResolvesLinksAgainstHost(t *testing.T) {
	r := newTestRecorder(t)

	html := `<html><body>
<a href="/employee-hub">Employees</a>
<a href="team?page=2">Next</a>
<a href="https://help.example.org/faq">Help</a>
<img src="/logo.png" alt="logo">
</body></html>`
	path, err := r.CapturePage("Validation", html, "https://sandbox-app.brighthr.com/dashboard/")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[Employees](https://sandbox-app.brighthr.com/employee-hub)")
	assert.Contains(t, content, "[Next](https://sandbox-app.brighthr.com/dashboard/team?page=2)")
	assert.Contains(t, content, "[Help](https://help.example.org/faq)")
	assert.Contains(t, content, "![logo](https://sandbox-app.brighthr.com/logo.png)")
	assert.NotContains(t, content, "%2F")
	assert.NotContains(t, content, "http://https")
}

func TestCapturePageWithoutBaseURL(t *testing.T) {
	r := newTestRecorder(t)

	path, err := r.CapturePage("Happy path", `<a href="/employee-hub">Employees</a>`, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Employees](/employee-hub)")
}

func TestRecordStampsRunID(t *testing.T) {
	r := newTestRecorder(t)
	r.Record(models.ScenarioResult{Scenario: "a", Status: models.ScenarioPassed})
	r.Record(models.ScenarioResult{Scenario: "b", Status: models.ScenarioFailed, Error: "boom"})

	summary := r.Finish()
	require.Len(t, summary.Results, 2)
	for _, res := range summary.Results {
		assert.Equal(t, r.RunID(), res.RunID)
	}
	assert.False(t, summary.FinishedAt.IsZero())
	assert.False(t, summary.Succeeded())
}

func TestRenderMarkdown(t *testing.T) {
	started := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	summary := models.RunSummary{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		BaseURL:    "https://app.example.com",
		Results: []models.ScenarioResult{
			{Scenario: "Desktop layout", Status: models.ScenarioPassed, Duration: 1500 * time.Millisecond},
			{
				Scenario:    "Validation flow",
				Status:      models.ScenarioFailed,
				Duration:    time.Second,
				Error:       "expected a|b\nobserved c",
				Screenshots: []string{"/tmp/run/screenshots/03-validation-flow-failure.png"},
				PageCapture: "/tmp/run/04-validation-flow-page.md",
			},
		},
	}

	out := RenderMarkdown(summary)
	assert.Contains(t, out, "# Run run-1")
	assert.Contains(t, out, "- Duration: 1m30s")
	assert.Contains(t, out, "- Result: 1 passed, 1 failed, 0 skipped")
	assert.Contains(t, out, "| Desktop layout | passed | 1.5s |  |")
	assert.Contains(t, out, `expected a\|b observed c`)
	assert.Contains(t, out, "## Validation flow")
	assert.Contains(t, out, "](screenshots/03-validation-flow-failure.png)")
	assert.Contains(t, out, "[04-validation-flow-page.md](04-validation-flow-page.md)")
}

func TestWriteSummary(t *testing.T) {
	r := newTestRecorder(t)
	r.Record(models.ScenarioResult{Scenario: "Mobile layout", Status: models.ScenarioPassed})
	r.Finish()

	mdPath, htmlPath, err := r.WriteSummary()
	require.NoError(t, err)

	markdown, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(markdown), "| Mobile layout | passed |")

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<table>")
	assert.Contains(t, string(html), "<td>Mobile layout</td>")
	assert.Contains(t, string(html), "<h1>Run "+r.RunID()+"</h1>")
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"991px mobile layout":   "991px-mobile-layout",
		"  Happy path!! ":       "happy-path",
		"Ella-Rose O'Connor":    "ella-rose-o-connor",
		"":                      "unnamed",
		"---":                   "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}
