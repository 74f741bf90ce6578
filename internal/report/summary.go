package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/hubcheck/internal/models"
)

// RenderMarkdown renders a run summary as a markdown report
func RenderMarkdown(s models.RunSummary) string {
	passed, failed, skipped := s.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Target: %s\n", s.BaseURL)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(100*time.Millisecond))
	}
	fmt.Fprintf(&b, "- Result: %d passed, %d failed, %d skipped\n\n", passed, failed, skipped)

	b.WriteString("| Scenario | Status | Duration | Error |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range s.Results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(r.Scenario), r.Status, r.Duration.Round(time.Millisecond), escapeCell(r.Error))
	}

	for _, r := range s.Results {
		if r.Status != models.ScenarioFailed {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", r.Scenario)
		fmt.Fprintf(&b, "```\n%s\n```\n", r.Error)
		for _, shot := range r.Screenshots {
			fmt.Fprintf(&b, "\n![%s](%s)\n", filepath.Base(shot), relative(shot))
		}
		if r.PageCapture != "" {
			fmt.Fprintf(&b, "\nPage capture: [%s](%s)\n", filepath.Base(r.PageCapture), relative(r.PageCapture))
		}
	}
	return b.String()
}

// RenderHTML converts a markdown report into a standalone HTML page
func RenderHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to render summary html: %w", err)
	}
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>hubcheck run</title>" +
		"<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}" +
		"td,th{border:1px solid #ccc;padding:4px 8px}</style></head><body>\n" +
		body.String() + "</body></html>\n", nil
}

// WriteSummary writes summary.md and summary.html into the run directory
func (r *Recorder) WriteSummary() (markdownPath, htmlPath string, err error) {
	markdown := RenderMarkdown(r.Summary())
	html, err := RenderHTML(markdown)
	if err != nil {
		return "", "", err
	}

	markdownPath = filepath.Join(r.runDir, "summary.md")
	htmlPath = filepath.Join(r.runDir, "summary.html")
	if err := os.WriteFile(markdownPath, []byte(markdown), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", markdownPath, err)
	}
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", htmlPath, err)
	}

	r.logger.Info().Str("summary", markdownPath).Msg("Run summary written")
	return markdownPath, htmlPath, nil
}

// relative links artifacts from the summary, which sits in the run directory
func relative(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "screenshots" {
		return "screenshots/" + filepath.Base(path)
	}
	return filepath.Base(path)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
