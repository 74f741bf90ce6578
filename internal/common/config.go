package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the suite configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "ci" - ci forces headless
	App         AppConfig      `toml:"app"`
	Browser     BrowserConfig  `toml:"browser"`
	Session     SessionConfig  `toml:"session"`
	Logging     LoggingConfig  `toml:"logging"`
	Output      OutputConfig   `toml:"output"`
	Schedule    ScheduleConfig `toml:"schedule"`

	// Credentials are only ever read from the environment.
	Credentials Credentials `toml:"-"`
}

// AppConfig describes the application under test
type AppConfig struct {
	BaseURL     string `toml:"base_url"`     // Origin of the employee hub (e.g., "https://sandbox-app.brighthr.com")
	LoginOrigin string `toml:"login_origin"` // Origin of the identity provider
	ProductName string `toml:"product_name"` // Product name used in the success confirmation
}

type BrowserConfig struct {
	Headless      bool          `toml:"headless"`
	DisableGPU    bool          `toml:"disable_gpu"`
	NoSandbox     bool          `toml:"no_sandbox"`
	Width         int           `toml:"width"`
	Height        int           `toml:"height"`
	UserAgent     string        `toml:"user_agent"`
	ActionTimeout time.Duration `toml:"-"` // Bounded wait for a single element interaction ("action_timeout")
	DialogTimeout time.Duration `toml:"-"` // Bounded wait for the success dialog ("dialog_timeout")
	SuiteTimeout  time.Duration `toml:"-"` // Upper bound for one complete run ("suite_timeout")
}

// SessionConfig controls the cached authenticated session
type SessionConfig struct {
	Name  string        `toml:"name"`  // Cache key for the session
	Path  string        `toml:"path"`  // Badger directory holding cached sessions
	TTL   time.Duration `toml:"-"`     // Cached sessions older than this are discarded, 0 = never ("ttl")
	Reset bool          `toml:"reset"` // Drop the cache directory on startup
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type OutputConfig struct {
	ResultsDir string `toml:"results_dir"` // Screenshots, page captures and summaries
}

// ScheduleConfig holds the cron expression used by `hubcheck schedule`
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

// Credentials for the identity provider. Never logged.
type Credentials struct {
	Email    string
	Password string
}

// IsSet reports whether both credential values are present
func (c Credentials) IsSet() bool {
	return c.Email != "" && c.Password != ""
}

// String hides the password so credentials can be safely formatted
func (c Credentials) String() string {
	if c.Email == "" {
		return "<unset>"
	}
	return c.Email + ":<redacted>"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		App: AppConfig{
			BaseURL:     "https://sandbox-app.brighthr.com",
			LoginOrigin: "https://sandbox-login.brighthr.com",
			ProductName: "BrightHR Lite",
		},
		Browser: BrowserConfig{
			Headless:      true,
			DisableGPU:    true,
			NoSandbox:     false,
			Width:         1280,
			Height:        800,
			ActionTimeout: 5 * time.Second,
			DialogTimeout: 10 * time.Second,
			SuiteTimeout:  10 * time.Minute,
		},
		Session: SessionConfig{
			Name: "brighthr-session",
			Path: "./data/sessions",
			TTL:  8 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Output: OutputConfig{
			ResultsDir: "./results",
		},
		Schedule: ScheduleConfig{
			Cron: "0 */6 * * *",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Later files override earlier ones
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
		if err := applyFileDurations(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// fileDurations holds the duration settings as written in TOML ("5s", "8h")
type fileDurations struct {
	Browser struct {
		ActionTimeout string `toml:"action_timeout"`
		DialogTimeout string `toml:"dialog_timeout"`
		SuiteTimeout  string `toml:"suite_timeout"`
	} `toml:"browser"`
	Session struct {
		TTL string `toml:"ttl"`
	} `toml:"session"`
}

// applyFileDurations parses the duration strings of one config file. Keys the
// file leaves out keep their current value.
func applyFileDurations(data []byte, config *Config) error {
	var raw fileDurations
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, d := range []struct {
		key   string
		value string
		dest  *time.Duration
	}{
		{"browser.action_timeout", raw.Browser.ActionTimeout, &config.Browser.ActionTimeout},
		{"browser.dialog_timeout", raw.Browser.DialogTimeout, &config.Browser.DialogTimeout},
		{"browser.suite_timeout", raw.Browser.SuiteTimeout, &config.Browser.SuiteTimeout},
		{"session.ttl", raw.Session.TTL, &config.Session.TTL},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dest = parsed
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("HUBCHECK_ENV"); env != "" {
		config.Environment = env
	}

	if baseURL := os.Getenv("HUBCHECK_BASE_URL"); baseURL != "" {
		config.App.BaseURL = baseURL
	}
	if loginOrigin := os.Getenv("HUBCHECK_LOGIN_ORIGIN"); loginOrigin != "" {
		config.App.LoginOrigin = loginOrigin
	}

	if headless := os.Getenv("HUBCHECK_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
	if noSandbox := os.Getenv("HUBCHECK_NO_SANDBOX"); noSandbox != "" {
		if b, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = b
		}
	}
	if timeout := os.Getenv("HUBCHECK_ACTION_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Browser.ActionTimeout = d
		}
	}

	if path := os.Getenv("HUBCHECK_SESSION_PATH"); path != "" {
		config.Session.Path = path
	}
	if level := os.Getenv("HUBCHECK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("HUBCHECK_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}
	if dir := os.Getenv("HUBCHECK_RESULTS_DIR"); dir != "" {
		config.Output.ResultsDir = dir
	}
	if schedule := os.Getenv("HUBCHECK_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
	}

	config.Credentials = credentialsFromEnv()

	if config.IsCI() {
		config.Browser.Headless = true
	}
}

// credentialsFromEnv reads HUBCHECK_EMAIL/HUBCHECK_PASSWORD, falling back to
// the BRIGHTHR_EMAIL/BRIGHTHR_PW names used by existing CI secrets.
func credentialsFromEnv() Credentials {
	creds := Credentials{
		Email:    os.Getenv("HUBCHECK_EMAIL"),
		Password: os.Getenv("HUBCHECK_PASSWORD"),
	}
	if creds.Email == "" {
		creds.Email = os.Getenv("BRIGHTHR_EMAIL")
	}
	if creds.Password == "" {
		creds.Password = os.Getenv("BRIGHTHR_PW")
	}
	return creds
}

// Validate checks the values that would otherwise fail late inside a browser run
func (c *Config) Validate() error {
	if c.App.BaseURL == "" {
		return fmt.Errorf("app.base_url is required")
	}
	if !strings.HasPrefix(c.App.BaseURL, "http://") && !strings.HasPrefix(c.App.BaseURL, "https://") {
		return fmt.Errorf("app.base_url must be an http(s) URL, got %q", c.App.BaseURL)
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("browser window size must be positive, got %dx%d", c.Browser.Width, c.Browser.Height)
	}
	if c.Browser.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be positive")
	}
	if c.Session.Name == "" {
		return fmt.Errorf("session.name is required")
	}
	return nil
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsCI returns true when running under continuous integration
func (c *Config) IsCI() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "ci" || os.Getenv("CI") == "true"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
