// Package report records scenario results for a run and writes the run's
// artifacts: screenshots, failure page captures and summaries.
package report

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/models"
)

// Recorder collects the results of one run under its own directory
type Recorder struct {
	mu      sync.Mutex
	runDir  string
	summary models.RunSummary
	seq     int
	logger  arbor.ILogger
	now     func() time.Time
}

// NewRecorder starts a run with a fresh id. Artifacts go to
// resultsDir/<timestamp>-<short id>/.
func NewRecorder(resultsDir, baseURL string, logger arbor.ILogger) (*Recorder, error) {
	runID := uuid.New().String()
	started := time.Now()
	runDir := filepath.Join(resultsDir, fmt.Sprintf("%s-%s", started.Format("20060102-150405"), runID[:8]))
	if err := os.MkdirAll(filepath.Join(runDir, "screenshots"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	logger.Debug().Str("run_id", runID).Str("dir", runDir).Msg("Run started")

	return &Recorder{
		runDir: runDir,
		summary: models.RunSummary{
			RunID:     runID,
			StartedAt: started,
			BaseURL:   baseURL,
		},
		logger: logger,
		now:    time.Now,
	}, nil
}

// RunID returns the run's uuid
func (r *Recorder) RunID() string {
	return r.summary.RunID
}

// RunDir returns the directory holding the run's artifacts
func (r *Recorder) RunDir() string {
	return r.runDir
}

// next returns the next artifact sequence number
func (r *Recorder) next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}

// SaveScreenshot writes PNG bytes as screenshots/NN-scenario-name.png
func (r *Recorder) SaveScreenshot(scenario, name string, png []byte) (string, error) {
	path := filepath.Join(r.runDir, "screenshots", fmt.Sprintf("%02d-%s-%s.png", r.next(), Slug(scenario), Slug(name)))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	r.logger.Debug().Str("scenario", scenario).Str("path", path).Msg("Screenshot saved")
	return path, nil
}

// CapturePage stores the page HTML as markdown next to the screenshots, so a
// failure can be read without opening a browser.
func (r *Recorder) CapturePage(scenario, html, baseURL string) (string, error) {
	converted, err := pageConverter(baseURL).ConvertString(html)
	if err != nil {
		r.logger.Warn().Err(err).Str("scenario", scenario).Msg("HTML to markdown conversion failed, storing raw HTML")
		converted = "```html\n" + html + "\n```\n"
	}

	path := filepath.Join(r.runDir, fmt.Sprintf("%02d-%s-page.md", r.next(), Slug(scenario)))
	content := fmt.Sprintf("# Page at failure: %s\n\n%s\n", scenario, strings.TrimSpace(converted))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to save page capture: %w", err)
	}
	return path, nil
}

// pageConverter makes relative links absolute against baseURL. The converter
// takes a bare host; links keep the base URL's scheme.
func pageConverter(baseURL string) *md.Converter {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return md.NewConverter(md.DomainFromURL(baseURL), true, nil)
	}

	return md.NewConverter(base.Host, true, &md.Options{
		GetAbsoluteURL: func(_ *goquery.Selection, rawURL string, _ string) string {
			ref, err := url.Parse(rawURL)
			if err != nil || ref.Scheme == "data" {
				return rawURL
			}
			return base.ResolveReference(ref).String()
		},
	})
}

// Record adds a scenario result to the run
func (r *Recorder) Record(result models.ScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result.RunID = r.summary.RunID
	r.summary.Results = append(r.summary.Results, result)
}

// Finish stamps the end time and returns a copy of the summary
func (r *Recorder) Finish() models.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.FinishedAt = r.now()
	return r.copySummary()
}

// Summary returns a copy of the results recorded so far
func (r *Recorder) Summary() models.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copySummary()
}

func (r *Recorder) copySummary() models.RunSummary {
	s := r.summary
	s.Results = append([]models.ScenarioResult(nil), r.summary.Results...)
	return s
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a scenario or step name into a file-name fragment
func Slug(name string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return "unnamed"
	}
	return slug
}
