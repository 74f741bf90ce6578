package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearHubcheckEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"HUBCHECK_ENV", "HUBCHECK_BASE_URL", "HUBCHECK_LOGIN_ORIGIN", "HUBCHECK_HEADLESS",
		"HUBCHECK_NO_SANDBOX", "HUBCHECK_ACTION_TIMEOUT", "HUBCHECK_SESSION_PATH",
		"HUBCHECK_LOG_LEVEL", "HUBCHECK_LOG_OUTPUT", "HUBCHECK_RESULTS_DIR", "HUBCHECK_SCHEDULE",
		"HUBCHECK_EMAIL", "HUBCHECK_PASSWORD", "BRIGHTHR_EMAIL", "BRIGHTHR_PW", "CI",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	clearHubcheckEnv(t)

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "https://sandbox-app.brighthr.com", config.App.BaseURL)
	assert.Equal(t, 5*time.Second, config.Browser.ActionTimeout)
	assert.Equal(t, 10*time.Second, config.Browser.DialogTimeout)
	assert.Equal(t, "brighthr-session", config.Session.Name)
	assert.False(t, config.Credentials.IsSet())
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	clearHubcheckEnv(t)
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[app]
base_url = "https://staging.example.com"

[browser]
width = 1920
action_timeout = "3s"
`), 0644))

	local := filepath.Join(dir, "local.toml")
	require.NoError(t, os.WriteFile(local, []byte(`
[browser]
headless = false
width = 1440
`), 0644))

	config, err := LoadFromFiles(base, local)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", config.App.BaseURL)
	assert.Equal(t, 1440, config.Browser.Width)
	assert.Equal(t, 800, config.Browser.Height, "untouched values keep defaults")
	assert.Equal(t, 3*time.Second, config.Browser.ActionTimeout)
	assert.False(t, config.Browser.Headless)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	clearHubcheckEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "hubcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
base_url = "https://from-file.example.com"
`), 0644))

	t.Setenv("HUBCHECK_BASE_URL", "https://from-env.example.com")
	t.Setenv("HUBCHECK_LOG_OUTPUT", "stdout, file")
	t.Setenv("BRIGHTHR_EMAIL", "qa@example.com")
	t.Setenv("BRIGHTHR_PW", "secret")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.com", config.App.BaseURL)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.True(t, config.Credentials.IsSet())
	assert.Equal(t, "qa@example.com", config.Credentials.Email)
}

func TestLoadFromFiles_CIForcesHeadless(t *testing.T) {
	clearHubcheckEnv(t)
	t.Setenv("HUBCHECK_HEADLESS", "false")
	t.Setenv("HUBCHECK_ENV", "ci")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.True(t, config.Browser.Headless)
}

func TestLoadFromFiles_InvalidBaseURL(t *testing.T) {
	clearHubcheckEnv(t)
	t.Setenv("HUBCHECK_BASE_URL", "sandbox-app.brighthr.com")

	_, err := LoadFromFiles()
	assert.ErrorContains(t, err, "base_url")
}

func TestCredentialsNeverFormatPassword(t *testing.T) {
	creds := Credentials{Email: "qa@example.com", Password: "hunter2"}
	assert.NotContains(t, creds.String(), "hunter2")
	assert.Equal(t, "<unset>", Credentials{}.String())
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{"0 */6 * * *", false},
		{"*/5 * * * *", false},
		{"*/2 * * * *", true},
		{"* * * * *", true},
		{"not a cron", true},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFiles_SampleConfig(t *testing.T) {
	clearHubcheckEnv(t)

	config, err := LoadFromFiles(filepath.Join("..", "..", "deployments", "local", "hubcheck.toml"))
	require.NoError(t, err)

	assert.Equal(t, "https://sandbox-app.brighthr.com", config.App.BaseURL)
	assert.Equal(t, 5*time.Second, config.Browser.ActionTimeout)
	assert.Equal(t, 10*time.Second, config.Browser.DialogTimeout)
	assert.Equal(t, 10*time.Minute, config.Browser.SuiteTimeout)
	assert.Equal(t, 8*time.Hour, config.Session.TTL)
	assert.Equal(t, "0 */6 * * *", config.Schedule.Cron)
}

func TestLoadFromFiles_DurationStrings(t *testing.T) {
	clearHubcheckEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "hubcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[browser]
dialog_timeout = "1m30s"

[session]
ttl = "0s"
`), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, config.Browser.DialogTimeout)
	assert.Equal(t, 5*time.Second, config.Browser.ActionTimeout, "missing keys keep defaults")
	assert.Equal(t, time.Duration(0), config.Session.TTL)
}

func TestLoadFromFiles_InvalidDuration(t *testing.T) {
	clearHubcheckEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "hubcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[browser]
action_timeout = "soon"
`), 0644))

	_, err := LoadFromFiles(path)
	assert.ErrorContains(t, err, "browser.action_timeout")
}
