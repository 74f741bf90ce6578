package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	testRunDir     string
	testRunDirOnce sync.Once
	testRunDirErr  error
)

// getOrCreateTestRunDir returns the directory shared by every test in this
// run. Screenshots, page captures, summaries and the log all go there.
func getOrCreateTestRunDir() (string, error) {
	testRunDirOnce.Do(func() {
		// Check if TEST_RESULTS_DIR is set by runner
		if envDir := os.Getenv("TEST_RESULTS_DIR"); envDir != "" {
			testRunDir = envDir
		} else {
			timestamp := time.Now().Format("run-2006-01-02-15-04-05")
			testRunDir = filepath.Join("..", "results", timestamp)
		}
		if err := os.MkdirAll(testRunDir, 0755); err != nil {
			testRunDirErr = fmt.Errorf("failed to create test run directory: %w", err)
		}
	})
	return testRunDir, testRunDirErr
}
