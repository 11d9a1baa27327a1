package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Media Directory Configuration:
// - SHOW_DIR: TV show directory (default: /shows)
// - ANIMATION_DIR: Animation directory (default: /animations)
// - TELEPLAY_DIR: Teleplay directory (default: /teleplays)
//
// Sync Configuration:
// - DUALSUB_SYNC_TIMEOUT: audio alignment timeout in seconds (default: 120)
// - DUALSUB_MAX_OFFSET_SECONDS: reject alignments beyond this offset (default: 60)
// - DUALSUB_FALLBACK_OFFSET_MS: fixed offset applied when no strategy succeeds (default: -200)
// - DUALSUB_AUDIO_ALIGNER: path to the external audio alignment binary (default: ffsubsync)
//
// Styling Configuration:
// - DUALSUB_PRIMARY_COLOR: primary track color (default: #FFFFFF)
// - DUALSUB_SECONDARY_COLOR: secondary track color (default: #FFFF00)
// - DUALSUB_PRIMARY_FONT_SIZE: primary font size (default: 20)
// - DUALSUB_SECONDARY_FONT_SIZE: secondary font size (default: 18)
// - DUALSUB_OUTPUT_FORMAT: default output format, ass or srt (default: ass)
//
// Jobs Configuration:
// - JOB_RETENTION_COMPLETED_HOURS: hours to keep completed jobs (default: 24)
// - JOB_RETENTION_FAILED_HOURS: hours to keep failed/cancelled jobs (default: 72)
// - JOB_CLEANUP_CRON: cron expression for job cleanup (default: @hourly)
// - LIBRARY_RESCAN_CRON: cron expression for the periodic rescan (default: 0 */6 * * *)
// - TASK_TIMEOUT: per-episode task timeout in seconds (default: 300)
//
// System Configuration:
// - HTTP_ADDR: HTTP listen address (default: :8095)
// - DB_PATH: SQLite database path (default: /config/dualsub.db)
// - LOG_LEVEL: debug|info|warn|error (default: info)
// - LOG_FILE: optional log file path (default: stdout only)
// - LIBRARY_CACHE_TTL: library scan cache TTL in seconds (default: 30)

type Config struct {
	// Media Directory Configuration
	Media MediaConfig `json:"media"`

	// Sync Configuration
	Sync SyncConfig `json:"sync"`

	// Styling Configuration
	Styling StylingConfig `json:"styling"`

	// Jobs Configuration
	Jobs JobsConfig `json:"jobs"`

	// System Configuration
	System SystemConfig `json:"system"`
}

// MediaConfig holds the configuration for media directories
type MediaConfig struct {
	ShowDir      string `json:"show_dir"`
	AnimationDir string `json:"animation_dir"`
	TeleplayDir  string `json:"teleplay_dir"`
}

func (c MediaConfig) MediaPaths() []string {
	ret := make([]string, 0)
	if c.ShowDir != "" {
		ret = append(ret, c.ShowDir)
	}
	if c.AnimationDir != "" {
		ret = append(ret, c.AnimationDir)
	}
	if c.TeleplayDir != "" {
		ret = append(ret, c.TeleplayDir)
	}
	return ret
}

// SyncConfig holds the subtitle alignment configuration
type SyncConfig struct {
	Timeout          time.Duration `json:"timeout"`
	MaxOffset        time.Duration `json:"max_offset"`
	FallbackOffsetMs int           `json:"fallback_offset_ms"`
	AudioAlignerCmd  string        `json:"audio_aligner_cmd"`
}

// StylingConfig holds the default dual-subtitle styling
type StylingConfig struct {
	PrimaryColor      string `json:"primary_color"`
	SecondaryColor    string `json:"secondary_color"`
	PrimaryFontSize   int    `json:"primary_font_size"`
	SecondaryFontSize int    `json:"secondary_font_size"`
	OutputFormat      string `json:"output_format"`
}

// JobsConfig holds job retention and scheduling configuration
type JobsConfig struct {
	RetentionCompleted time.Duration `json:"retention_completed"`
	RetentionFailed    time.Duration `json:"retention_failed"`
	CleanupCron        string        `json:"cleanup_cron"`
	RescanCron         string        `json:"rescan_cron"`
	TaskTimeout        time.Duration `json:"task_timeout"`
}

// SystemConfig holds the system configuration
type SystemConfig struct {
	HTTPAddr        string        `json:"http_addr"`
	DBPath          string        `json:"db_path"`
	LogLevel        string        `json:"log_level"`
	LogFile         string        `json:"log_file"`
	LibraryCacheTTL time.Duration `json:"library_cache_ttl"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Media: MediaConfig{
			ShowDir:      getEnvString("SHOW_DIR", "/shows"),
			AnimationDir: getEnvString("ANIMATION_DIR", "/animations"),
			TeleplayDir:  getEnvString("TELEPLAY_DIR", "/teleplays"),
		},
		Sync: SyncConfig{
			Timeout:          time.Duration(getEnvInt("DUALSUB_SYNC_TIMEOUT", 120)) * time.Second,
			MaxOffset:        time.Duration(getEnvInt("DUALSUB_MAX_OFFSET_SECONDS", 60)) * time.Second,
			FallbackOffsetMs: getEnvInt("DUALSUB_FALLBACK_OFFSET_MS", -200),
			AudioAlignerCmd:  getEnvString("DUALSUB_AUDIO_ALIGNER", "ffsubsync"),
		},
		Styling: StylingConfig{
			PrimaryColor:      getEnvString("DUALSUB_PRIMARY_COLOR", "#FFFFFF"),
			SecondaryColor:    getEnvString("DUALSUB_SECONDARY_COLOR", "#FFFF00"),
			PrimaryFontSize:   getEnvInt("DUALSUB_PRIMARY_FONT_SIZE", 20),
			SecondaryFontSize: getEnvInt("DUALSUB_SECONDARY_FONT_SIZE", 18),
			OutputFormat:      getEnvString("DUALSUB_OUTPUT_FORMAT", "ass"),
		},
		Jobs: JobsConfig{
			RetentionCompleted: time.Duration(getEnvInt("JOB_RETENTION_COMPLETED_HOURS", 24)) * time.Hour,
			RetentionFailed:    time.Duration(getEnvInt("JOB_RETENTION_FAILED_HOURS", 72)) * time.Hour,
			CleanupCron:        getEnvString("JOB_CLEANUP_CRON", "@hourly"),
			RescanCron:         getEnvString("LIBRARY_RESCAN_CRON", "0 */6 * * *"),
			TaskTimeout:        time.Duration(getEnvInt("TASK_TIMEOUT", 300)) * time.Second,
		},
		System: SystemConfig{
			HTTPAddr:        getEnvString("HTTP_ADDR", ":8095"),
			DBPath:          getEnvString("DB_PATH", "/config/dualsub.db"),
			LogLevel:        getEnvString("LOG_LEVEL", "info"),
			LogFile:         getEnvString("LOG_FILE", ""),
			LibraryCacheTTL: time.Duration(getEnvInt("LIBRARY_CACHE_TTL", 30)) * time.Second,
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if len(c.Media.MediaPaths()) == 0 {
		return fmt.Errorf("at least one media directory is required")
	}
	if c.Styling.OutputFormat != "ass" && c.Styling.OutputFormat != "srt" {
		return fmt.Errorf("DUALSUB_OUTPUT_FORMAT must be ass or srt, got %q", c.Styling.OutputFormat)
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("DUALSUB_SYNC_TIMEOUT must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
