package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Name != "reasoning-orchestrator" {
		t.Errorf("Expected server name 'reasoning-orchestrator', got '%s'", cfg.Server.Name)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Expected environment 'development', got '%s'", cfg.Server.Environment)
	}

	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected storage type 'memory', got '%s'", cfg.Storage.Type)
	}
	if cfg.Storage.SessionTTL != 3*time.Hour {
		t.Errorf("Expected session TTL 3h, got %s", cfg.Storage.SessionTTL)
	}

	if cfg.Bias.MaxAnalysisRounds != 5 {
		t.Errorf("Expected MaxAnalysisRounds 5, got %d", cfg.Bias.MaxAnalysisRounds)
	}
	if cfg.Monitor.CircularWindow != 5 {
		t.Errorf("Expected CircularWindow 5, got %d", cfg.Monitor.CircularWindow)
	}

	if cfg.Performance.MaxConcurrentSessions != 256 {
		t.Errorf("Expected MaxConcurrentSessions 256, got %d", cfg.Performance.MaxConcurrentSessions)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level 'info', got '%s'", cfg.Logging.Level)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Server.Name != "reasoning-orchestrator" {
		t.Errorf("Expected default server name, got '%s'", cfg.Server.Name)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)

	_ = os.Setenv("RO_SERVER_NAME", "test-server")
	_ = os.Setenv("RO_SERVER_ENVIRONMENT", "production")
	_ = os.Setenv("RO_STORAGE_TYPE", "sqlite")
	_ = os.Setenv("RO_STORAGE_SESSION_TTL_SECONDS", "120")
	_ = os.Setenv("RO_BIAS_MAX_ANALYSIS_ROUNDS", "0")
	_ = os.Setenv("RO_BIAS_CONFIDENCE_THRESHOLD", "0.5")
	_ = os.Setenv("RO_PERFORMANCE_MAX_CONCURRENT_SESSIONS", "10")
	_ = os.Setenv("RO_LOGGING_LEVEL", "debug")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Name != "test-server" {
		t.Errorf("Expected server name 'test-server', got '%s'", cfg.Server.Name)
	}
	if cfg.Server.Environment != "production" {
		t.Errorf("Expected environment 'production', got '%s'", cfg.Server.Environment)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Expected storage type 'sqlite', got '%s'", cfg.Storage.Type)
	}
	if cfg.Storage.SessionTTL != 120*time.Second {
		t.Errorf("Expected session TTL 120s, got %s", cfg.Storage.SessionTTL)
	}
	if cfg.Bias.MaxAnalysisRounds != 0 {
		t.Errorf("Expected MaxAnalysisRounds 0, got %d", cfg.Bias.MaxAnalysisRounds)
	}
	if cfg.Bias.BiasConfidenceThreshold != 0.5 {
		t.Errorf("Expected BiasConfidenceThreshold 0.5, got %v", cfg.Bias.BiasConfidenceThreshold)
	}
	if cfg.Performance.MaxConcurrentSessions != 10 {
		t.Errorf("Expected MaxConcurrentSessions 10, got %d", cfg.Performance.MaxConcurrentSessions)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"server": {
			"name": "file-server",
			"version": "2.0.0",
			"environment": "staging"
		},
		"storage": {
			"type": "memory",
			"session_ttl": 60000000000
		},
		"bias": {
			"max_analysis_rounds": 2,
			"bias_confidence_threshold": 0.6
		},
		"performance": {
			"max_concurrent_sessions": 25
		},
		"logging": {
			"level": "warn",
			"format": "json",
			"enable_timestamps": false
		}
	}`

	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	clearEnv(t)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Server.Name != "file-server" {
		t.Errorf("Expected server name 'file-server', got '%s'", cfg.Server.Name)
	}
	if cfg.Server.Version != "2.0.0" {
		t.Errorf("Expected version '2.0.0', got '%s'", cfg.Server.Version)
	}
	if cfg.Server.Environment != "staging" {
		t.Errorf("Expected environment 'staging', got '%s'", cfg.Server.Environment)
	}
	if cfg.Bias.MaxAnalysisRounds != 2 {
		t.Errorf("Expected MaxAnalysisRounds 2, got %d", cfg.Bias.MaxAnalysisRounds)
	}
	if cfg.Performance.MaxConcurrentSessions != 25 {
		t.Errorf("Expected MaxConcurrentSessions 25, got %d", cfg.Performance.MaxConcurrentSessions)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected log level 'warn', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected log format 'json', got '%s'", cfg.Logging.Format)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"server": {
			"name": "file-server",
			"environment": "staging"
		}
	}`

	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	clearEnv(t)
	_ = os.Setenv("RO_SERVER_NAME", "env-server")
	defer clearEnv(t)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Server.Name != "env-server" {
		t.Errorf("Expected server name 'env-server' (env override), got '%s'", cfg.Server.Name)
	}
	if cfg.Server.Environment != "staging" {
		t.Errorf("Expected environment 'staging' (from file), got '%s'", cfg.Server.Environment)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid default config",
			cfg:     Default(),
			wantErr: false,
		},
		{
			name: "empty server name",
			cfg: &Config{
				Server:      ServerConfig{Name: "", Environment: "development"},
				Storage:     StorageConfig{Type: "memory", SessionTTL: time.Hour},
				Bias:        BiasConfig{MaxAnalysisRounds: 5},
				Performance: PerformanceConfig{MaxConcurrentSessions: 100},
				Logging:     LoggingConfig{Level: "info", Format: "text"},
			},
			wantErr: true,
			errMsg:  "server.name cannot be empty",
		},
		{
			name: "invalid storage type",
			cfg: &Config{
				Server:      ServerConfig{Name: "test", Environment: "development"},
				Storage:     StorageConfig{Type: "postgresql", SessionTTL: time.Hour},
				Bias:        BiasConfig{MaxAnalysisRounds: 5},
				Performance: PerformanceConfig{MaxConcurrentSessions: 100},
				Logging:     LoggingConfig{Level: "info", Format: "text"},
			},
			wantErr: true,
			errMsg:  "storage.type must be 'memory' or 'sqlite'",
		},
		{
			name: "non-positive session ttl",
			cfg: &Config{
				Server:      ServerConfig{Name: "test", Environment: "development"},
				Storage:     StorageConfig{Type: "memory", SessionTTL: 0},
				Bias:        BiasConfig{MaxAnalysisRounds: 5},
				Performance: PerformanceConfig{MaxConcurrentSessions: 100},
				Logging:     LoggingConfig{Level: "info", Format: "text"},
			},
			wantErr: true,
			errMsg:  "storage.session_ttl must be positive",
		},
		{
			name: "negative max analysis rounds",
			cfg: &Config{
				Server:      ServerConfig{Name: "test", Environment: "development"},
				Storage:     StorageConfig{Type: "memory", SessionTTL: time.Hour},
				Bias:        BiasConfig{MaxAnalysisRounds: -1},
				Performance: PerformanceConfig{MaxConcurrentSessions: 100},
				Logging:     LoggingConfig{Level: "info", Format: "text"},
			},
			wantErr: true,
			errMsg:  "bias.max_analysis_rounds cannot be negative",
		},
		{
			name: "invalid max concurrent sessions",
			cfg: &Config{
				Server:      ServerConfig{Name: "test", Environment: "development"},
				Storage:     StorageConfig{Type: "memory", SessionTTL: time.Hour},
				Bias:        BiasConfig{MaxAnalysisRounds: 5},
				Performance: PerformanceConfig{MaxConcurrentSessions: 0},
				Logging:     LoggingConfig{Level: "info", Format: "text"},
			},
			wantErr: true,
			errMsg:  "performance.max_concurrent_sessions must be >= 1",
		},
		{
			name: "invalid log level",
			cfg: &Config{
				Server:      ServerConfig{Name: "test", Environment: "development"},
				Storage:     StorageConfig{Type: "memory", SessionTTL: time.Hour},
				Bias:        BiasConfig{MaxAnalysisRounds: 5},
				Performance: PerformanceConfig{MaxConcurrentSessions: 100},
				Logging:     LoggingConfig{Level: "verbose", Format: "text"},
			},
			wantErr: true,
			errMsg:  "logging.level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, should contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestToJSON(t *testing.T) {
	cfg := Default()
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("ToJSON() returned empty data")
	}

	jsonStr := string(data)
	if !contains(jsonStr, "server") {
		t.Error("JSON should contain 'server' field")
	}
	if !contains(jsonStr, "bias") {
		t.Error("JSON should contain 'bias' field")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"RO_SERVER_NAME",
		"RO_SERVER_ENVIRONMENT",
		"RO_STORAGE_TYPE",
		"RO_STORAGE_PATH",
		"RO_STORAGE_SESSION_TTL_SECONDS",
		"RO_BIAS_MAX_ANALYSIS_ROUNDS",
		"RO_BIAS_CONFIDENCE_THRESHOLD",
		"RO_PERFORMANCE_MAX_CONCURRENT_SESSIONS",
		"RO_LOGGING_LEVEL",
		"RO_LOGGING_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func contains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	if len(s) < len(substr) {
		return false
	}
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
