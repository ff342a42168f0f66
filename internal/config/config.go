// Package config provides configuration management for the reasoning
// orchestration server.
//
// Configuration can be loaded from multiple sources (in order of
// precedence):
//  1. Environment variables (highest priority)
//  2. Configuration file (JSON)
//  3. Default values (lowest priority)
//
// Recognized options correspond to spec §6: default models per tier,
// session TTL, per-detector thresholds, bias/readiness thresholds, max
// analysis rounds, remote-call timeouts, and the max concurrent session
// cap. Configuration is process-wide and read once at startup; hot
// reload is out of scope.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Storage     StorageConfig     `json:"storage"`
	Models      ModelConfig       `json:"models"`
	Monitor     MonitorConfig     `json:"monitor"`
	Bias        BiasConfig        `json:"bias"`
	Performance PerformanceConfig `json:"performance"`
	Logging     LoggingConfig     `json:"logging"`
}

// ServerConfig contains server-level identification.
type ServerConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// StorageConfig selects and tunes the Persistence Store.
type StorageConfig struct {
	// Type is "memory" or "sqlite". Absence/failure degrades to memory
	// (non-durable) per spec §6's "store is optional" contract.
	Type string `json:"type"`
	// Path is the SQLite database file path, used when Type == "sqlite".
	Path string `json:"path"`
	// SessionTTL is the eviction cutoff for last-accessed sessions.
	SessionTTL time.Duration `json:"session_ttl"`
}

// ModelConfig names the default model alias per tier. A tool omitting
// model_id resolves against these.
type ModelConfig struct {
	DefaultChat      string `json:"default_chat"`
	DefaultReasoning string `json:"default_reasoning"`
	DefaultVerifier  string `json:"default_verifier"`
	// ReasoningModels names model ids routed through the extended-reasoning
	// call shape (longer timeout, reasoning_effort parameter accepted).
	ReasoningModels []string `json:"reasoning_models"`

	CallTimeout          time.Duration `json:"call_timeout"`
	ExtendedCallTimeout  time.Duration `json:"extended_call_timeout"`
	MaxRetryAttempts     int           `json:"max_retry_attempts"`
	RetryBaseBackoff     time.Duration `json:"retry_base_backoff"`
}

// MonitorConfig holds per-detector thresholds (spec §4.2).
type MonitorConfig struct {
	DriftThreshold       float64 `json:"drift_threshold"`        // default 0.3
	DegradationFloor     float64 `json:"degradation_floor"`      // default 0.4
	DegradationWindow    int     `json:"degradation_window"`     // default 3
	CircularThreshold    float64 `json:"circular_threshold"`     // default 0.85
	CircularWindow       int     `json:"circular_window"`        // default 5
	DistractorThreshold  float64 `json:"distractor_threshold"`   // default 0.30
	EntropyFloor         float64 `json:"entropy_floor"`          // optional, 0 disables
	CoolingSteps         int     `json:"cooling_steps"`          // default 2
}

// BiasConfig holds the Bias Verification Pipeline's thresholds (spec §4.3).
type BiasConfig struct {
	BiasConfidenceThreshold  float64 `json:"bias_confidence_threshold"` // default 0.7
	ReadyConfidenceThreshold float64 `json:"ready_confidence_threshold"` // default 0.75
	ReadyClarityThreshold    float64 `json:"ready_clarity_threshold"`    // default 0.70
	MaxAnalysisRounds        int     `json:"max_analysis_rounds"`        // default 5
}

// PerformanceConfig tunes concurrency and resource limits.
type PerformanceConfig struct {
	MaxConcurrentSessions int `json:"max_concurrent_sessions"`
	SnapshotTokenBudget   int `json:"snapshot_token_budget"`
}

// LoggingConfig controls ambient log verbosity.
type LoggingConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableTimestamps bool   `json:"enable_timestamps"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "reasoning-orchestrator",
			Version:     "1.0.0",
			Environment: "development",
		},
		Storage: StorageConfig{
			Type:       "memory",
			Path:       "reasoning.db",
			SessionTTL: 3 * time.Hour,
		},
		Models: ModelConfig{
			DefaultChat:         getEnvOrDefault("RO_MODEL_CHAT", "claude-sonnet-4-5-20250929"),
			DefaultReasoning:    getEnvOrDefault("RO_MODEL_REASONING", "claude-opus-4-1-20250805"),
			DefaultVerifier:     getEnvOrDefault("RO_MODEL_VERIFIER", "claude-3-5-haiku-20241022"),
			ReasoningModels:     []string{"claude-opus-4-1-20250805"},
			CallTimeout:         120 * time.Second,
			ExtendedCallTimeout: 600 * time.Second,
			MaxRetryAttempts:    3,
			RetryBaseBackoff:    500 * time.Millisecond,
		},
		Monitor: MonitorConfig{
			DriftThreshold:      0.3,
			DegradationFloor:    0.4,
			DegradationWindow:   3,
			CircularThreshold:   0.85,
			CircularWindow:      5,
			DistractorThreshold: 0.30,
			EntropyFloor:        0,
			CoolingSteps:        2,
		},
		Bias: BiasConfig{
			BiasConfidenceThreshold:  0.7,
			ReadyConfidenceThreshold: 0.75,
			ReadyClarityThreshold:    0.70,
			MaxAnalysisRounds:        5,
		},
		Performance: PerformanceConfig{
			MaxConcurrentSessions: 256,
			SnapshotTokenBudget:   4000,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			EnableTimestamps: true,
		},
	}
}

// Load loads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file, then applies
// environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables following
// the pattern RO_<SECTION>_<KEY>.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("RO_SERVER_NAME"); v != "" {
		c.Server.Name = v
	}
	if v := os.Getenv("RO_SERVER_ENVIRONMENT"); v != "" {
		c.Server.Environment = v
	}
	if v := os.Getenv("RO_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("RO_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("RO_STORAGE_SESSION_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.SessionTTL = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("RO_BIAS_MAX_ANALYSIS_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bias.MaxAnalysisRounds = n
		}
	}
	if v := os.Getenv("RO_BIAS_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Bias.BiasConfidenceThreshold = f
		}
	}
	if v := os.Getenv("RO_PERFORMANCE_MAX_CONCURRENT_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Performance.MaxConcurrentSessions = n
		}
	}
	if v := os.Getenv("RO_LOGGING_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("RO_LOGGING_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server.name cannot be empty")
	}
	if c.Storage.Type != "memory" && c.Storage.Type != "sqlite" {
		return fmt.Errorf("storage.type must be 'memory' or 'sqlite'")
	}
	if c.Storage.SessionTTL <= 0 {
		return fmt.Errorf("storage.session_ttl must be positive")
	}
	if c.Bias.MaxAnalysisRounds < 0 {
		return fmt.Errorf("bias.max_analysis_rounds cannot be negative")
	}
	if c.Performance.MaxConcurrentSessions < 1 {
		return fmt.Errorf("performance.max_concurrent_sessions must be >= 1")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ToJSON serializes the configuration to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
