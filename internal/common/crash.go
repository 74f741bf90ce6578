package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

var (
	crashDir   = "./results"
	crashDirMu sync.RWMutex
)

// InstallCrashHandler sets where crash reports are written. Call it once the
// configuration is loaded; until then reports go to ./results.
func InstallCrashHandler(dir string) {
	if dir == "" {
		return
	}
	crashDirMu.Lock()
	crashDir = dir
	crashDirMu.Unlock()
}

// WriteCrashFile writes a crash report and returns its path, or "" when the
// report could only go to stderr.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	crashDirMu.RLock()
	dir := crashDir
	crashDirMu.RUnlock()

	var report bytes.Buffer
	fmt.Fprintf(&report, "=== HUBCHECK CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&report, "Version: %s\n\n", GetFullVersion())
	fmt.Fprintf(&report, "=== PANIC VALUE ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK TRACE ===\n%s\n", stackTrace)
	fmt.Fprintf(&report, "=== SYSTEM INFO ===\n")
	fmt.Fprintf(&report, "NumGoroutine: %d\nGOOS: %s\nGOARCH: %s\n", runtime.NumGoroutine(), runtime.GOOS, runtime.GOARCH)

	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("2006-01-02T15-04-05")))
	if err := os.MkdirAll(dir, 0755); err == nil {
		err = os.WriteFile(path, report.Bytes(), 0644)
		if err == nil {
			fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", path)
			return path
		}
	}

	// Last resort: write to stderr
	fmt.Fprintf(os.Stderr, "%s", report.String())
	return ""
}

// GetStackTrace returns the current goroutine's stack trace
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile writes a crash report for a panic and exits.
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(1)
	}
}

// SafeGo runs fn in a goroutine. A panic is logged and does not take the
// process down.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", GetStackTrace()).
					Msg("Recovered from panic in goroutine")
			}
		}()
		fn()
	}()
}
