package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/hubcheck/internal/common"
)

// LoadTestConfig loads the suite configuration for live UI tests. An explicit
// file may be given in HUBCHECK_TEST_CONFIG; HUBCHECK_* environment variables
// apply on top as usual. Sessions and results stay inside the test run dir.
func LoadTestConfig() (*common.Config, error) {
	var paths []string
	if path := os.Getenv("HUBCHECK_TEST_CONFIG"); path != "" {
		paths = append(paths, path)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load test configuration: %w", err)
	}

	runDir, err := getOrCreateTestRunDir()
	if err != nil {
		return nil, err
	}
	config.Output.ResultsDir = runDir
	if os.Getenv("HUBCHECK_SESSION_PATH") == "" {
		config.Session.Path = filepath.Join(runDir, "sessions")
	}
	config.Logging.Output = []string{"file"}

	return config, nil
}
