package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultTickHz is the tick frequency a Lane runs at when LaneConfig.FrequencyHz is zero.
	DefaultTickHz = 60

	// DefaultShutdownDrainTicks is the number of barriered ticks every Lane participates
	// in after Synchronizer.Finish sets the finishing flag.
	DefaultShutdownDrainTicks = 10

	// DefaultTraceMaxEvents caps how many event records a TraceRecorder writes;
	// later records are dropped.
	DefaultTraceMaxEvents = 4096

	// DefaultLogLevel controls verbosity for engine logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "lanecore.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true
)

// Config captures all runtime tunables for the event-dispatch runtime.
type Config struct {
	DefaultTickHz      int
	ShutdownDrainTicks int
	TraceDir           string
	TraceMaxEvents     int
	Logging            LoggingConfig
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the runtime configuration from environment variables, applying sane
// defaults and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		DefaultTickHz:      DefaultTickHz,
		ShutdownDrainTicks: DefaultShutdownDrainTicks,
		TraceDir:           strings.TrimSpace(os.Getenv("ENGINE_TRACE_DIR")),
		TraceMaxEvents:     DefaultTraceMaxEvents,
		Logging: LoggingConfig{
			Level:      getString("ENGINE_LOG_LEVEL", DefaultLogLevel),
			Path:       getString("ENGINE_LOG_PATH", DefaultLogPath),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("ENGINE_DEFAULT_TICK_HZ")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ENGINE_DEFAULT_TICK_HZ must be a positive integer, got %q", raw))
		} else {
			cfg.DefaultTickHz = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ENGINE_SHUTDOWN_DRAIN_TICKS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ENGINE_SHUTDOWN_DRAIN_TICKS must be a positive integer, got %q", raw))
		} else {
			cfg.ShutdownDrainTicks = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ENGINE_TRACE_MAX_EVENTS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ENGINE_TRACE_MAX_EVENTS must be a positive integer, got %q", raw))
		} else {
			cfg.TraceMaxEvents = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ENGINE_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ENGINE_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ENGINE_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ENGINE_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ENGINE_LOG_MAX_AGE_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ENGINE_LOG_MAX_AGE_DAYS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxAgeDays = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ENGINE_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ENGINE_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf(strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
