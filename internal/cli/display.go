package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/ternarybob/hubcheck/internal/app"
	"github.com/ternarybob/hubcheck/internal/models"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	skipColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

func statusLabel(status models.ScenarioStatus) string {
	switch status {
	case models.ScenarioPassed:
		return passColor.Sprint("✓ PASS")
	case models.ScenarioFailed:
		return failColor.Sprint("✗ FAIL")
	default:
		return skipColor.Sprint("- SKIP")
	}
}

// firstLine keeps table cells on one row
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

// displayRun prints the per-scenario table and where the artifacts went
func displayRun(w io.Writer, result *app.RunResult) {
	summary := result.Summary
	fmt.Fprintf(w, "\nRun %s against %s\n\n", summary.RunID, summary.BaseURL)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tSCENARIO\tDURATION\tDETAIL")
	for _, r := range summary.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			statusLabel(r.Status),
			r.Scenario,
			r.Duration.Round(time.Millisecond),
			firstLine(r.Error))
	}
	tw.Flush()

	passed, failed, skipped := summary.Counts()
	totals := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if failed > 0 {
		totals = failColor.Sprint(totals)
	} else {
		totals = passColor.Sprint(totals)
	}
	fmt.Fprintf(w, "\n%s in %s\n", totals, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))

	fmt.Fprintf(w, "Artifacts: %s\n", result.RunDir)
	if result.HTMLPath != "" {
		fmt.Fprintf(w, "Summary:   %s\n", result.HTMLPath)
	}
}

// displayHistory prints one row per stored run, newest first
func displayHistory(w io.Writer, runs []*models.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No runs recorded"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tRESULT\tPASSED\tFAILED\tSKIPPED\tDURATION")
	for _, run := range runs {
		passed, failed, skipped := run.Counts()
		result := passColor.Sprint("ok")
		if failed > 0 {
			result = failColor.Sprint("failed")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(run.RunID),
			result,
			passed, failed, skipped,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	tw.Flush()
}

// displaySessions prints cached sessions without their cookie values
func displaySessions(w io.Writer, sessions []*models.Session, ttl time.Duration, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No cached sessions"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tORIGIN\tCOOKIES\tCREATED\tSTATE")
	for _, s := range sessions {
		state := passColor.Sprint("valid")
		if s.Expired(now, ttl) {
			state = skipColor.Sprint("expired")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			s.Name, s.Origin, len(s.Cookies),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			state)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
