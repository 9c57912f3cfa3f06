package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Reports     ReportsConfig   `toml:"reports"`
	Worker      WorkerConfig    `toml:"worker"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Claude      ClaudeConfig    `toml:"claude"`
	Announce    AnnounceConfig  `toml:"announcements"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ReportsConfig describes where report artifacts live and how they are served.
// The briefing directory holds deterministic-name artifacts; the investment
// directory holds pipeline outputs whose names are discovered after the run.
type ReportsConfig struct {
	BriefingDir      string `toml:"briefing_dir"`       // Daily briefing artifact directory
	BriefingURL      string `toml:"briefing_url"`       // URL prefix the briefing dir is served under
	InvestmentDir    string `toml:"investment_dir"`     // Investment report artifact directory
	InvestmentURL    string `toml:"investment_url"`     // URL prefix the investment dir is served under
	BriefingIDPrefix string `toml:"briefing_prefix"`    // Task id / filename prefix for briefings
	ArtifactExt      string `toml:"artifact_extension"` // Artifact file extension
}

// WorkerConfig describes how the briefing worker process is launched.
type WorkerConfig struct {
	Command    string `toml:"command"`     // Worker executable path
	WorkingDir string `toml:"working_dir"` // Working directory for the worker process
	ConfigFile string `toml:"config_file"` // TOML file passed to the worker via -config; empty means none
}

// PipelineConfig covers the synchronous investment-report pipeline.
type PipelineConfig struct {
	Command    string        `toml:"command"`     // Pipeline executable path
	WorkingDir string        `toml:"working_dir"` // Working directory for the pipeline process
	Timeout    time.Duration `toml:"timeout"`     // Hard wall-clock timeout; expiry is fatal for the request
}

// SchedulerConfig controls the optional cron-driven briefing launch.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Standard 5-field cron expression
}

// ClaudeConfig contains Anthropic Claude API configuration for the worker's
// classification stages.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY overrides)
	Model       string  `toml:"model"`       // Fallback model when a stage model is unset (default: "claude-haiku-3-5-20241022")
	FastModel   string  `toml:"fast_model"`  // Stage 1 triage model; empty falls back to Model
	DeepModel   string  `toml:"deep_model"`  // Stage 2 analysis model; empty falls back to Model
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// TriageModel returns the model for the cheap stage 1 triage calls.
func (c ClaudeConfig) TriageModel() string {
	if c.FastModel != "" {
		return c.FastModel
	}
	return c.Model
}

// AnalysisModel returns the model for the stage 2 full-document analysis.
func (c ClaudeConfig) AnalysisModel() string {
	if c.DeepModel != "" {
		return c.DeepModel
	}
	return c.Model
}

// AnnounceConfig configures the announcement feed the worker fetches from.
type AnnounceConfig struct {
	BaseURL        string        `toml:"base_url"`         // Announcement feed base URL
	APIKey         string        `toml:"api_key"`          // Feed API key/token
	RequestTimeout time.Duration `toml:"request_timeout"`  // HTTP request timeout
	RateLimit      int           `toml:"rate_limit"`       // Requests per second against the feed
	MaxPageFetches int           `toml:"max_page_fetches"` // Cap on HTML detail pages fetched per run
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Reports: ReportsConfig{
			BriefingDir:      "./generated_reports",
			BriefingURL:      "/reports",
			InvestmentDir:    "./investment_reports",
			InvestmentURL:    "/investment_reports",
			BriefingIDPrefix: "briefing",
			ArtifactExt:      ".html",
		},
		Worker: WorkerConfig{
			Command:    "./finbrief-worker",
			WorkingDir: ".",
		},
		Pipeline: PipelineConfig{
			Command:    "./finbrief-pipeline",
			WorkingDir: ".",
			Timeout:    15 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 7 * * *", // 07:00 daily
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		Announce: AnnounceConfig{
			BaseURL:        "",
			APIKey:         "",
			RequestTimeout: 30 * time.Second,
			RateLimit:      2,
			MaxPageFetches: 50,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files, environment variables override all files.
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

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINBRIEF_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("FINBRIEF_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FINBRIEF_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("FINBRIEF_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("FINBRIEF_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("FINBRIEF_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("FINBRIEF_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Reports configuration
	if dir := os.Getenv("FINBRIEF_REPORTS_BRIEFING_DIR"); dir != "" {
		config.Reports.BriefingDir = dir
	}
	if dir := os.Getenv("FINBRIEF_REPORTS_INVESTMENT_DIR"); dir != "" {
		config.Reports.InvestmentDir = dir
	}

	// Worker / pipeline configuration
	if cmd := os.Getenv("FINBRIEF_WORKER_COMMAND"); cmd != "" {
		config.Worker.Command = cmd
	}
	if cmd := os.Getenv("FINBRIEF_PIPELINE_COMMAND"); cmd != "" {
		config.Pipeline.Command = cmd
	}
	if timeout := os.Getenv("FINBRIEF_PIPELINE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Pipeline.Timeout = d
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("FINBRIEF_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("FINBRIEF_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("FINBRIEF_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // FINBRIEF_ prefix takes priority
	}
	if model := os.Getenv("FINBRIEF_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("FINBRIEF_CLAUDE_FAST_MODEL"); model != "" {
		config.Claude.FastModel = model
	}
	if model := os.Getenv("FINBRIEF_CLAUDE_DEEP_MODEL"); model != "" {
		config.Claude.DeepModel = model
	}
	if maxTokens := os.Getenv("FINBRIEF_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("FINBRIEF_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("FINBRIEF_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}

	// Announcement feed configuration
	if baseURL := os.Getenv("FINBRIEF_ANNOUNCEMENTS_BASE_URL"); baseURL != "" {
		config.Announce.BaseURL = baseURL
	}
	if apiKey := os.Getenv("FINBRIEF_ANNOUNCEMENTS_API_KEY"); apiKey != "" {
		config.Announce.APIKey = apiKey
	}
	if timeout := os.Getenv("FINBRIEF_ANNOUNCEMENTS_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Announce.RequestTimeout = d
		}
	}
	if rateLimit := os.Getenv("FINBRIEF_ANNOUNCEMENTS_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Announce.RateLimit = rl
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a standard 5-field cron expression.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	// Briefing generation is a minutes-long job; sub-5-minute schedules only
	// generate Conflict noise against the still-running task.
	if parts[0] == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(parts[0], "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(parts[0], "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ArtifactDirs returns the artifact directories the server must ensure exist.
func (c *Config) ArtifactDirs() []string {
	return []string{
		filepath.Clean(c.Reports.BriefingDir),
		filepath.Clean(c.Reports.InvestmentDir),
	}
}
