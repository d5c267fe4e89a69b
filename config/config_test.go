package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/decorlens/backend/internal/infrastructure/logger"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 2 {
			t.Errorf("Server.AllowedOrigins = %v, want 2 entries", cfg.Server.AllowedOrigins)
		}
		if cfg.AI.Model != "gpt-4o-mini" {
			t.Errorf("AI.Model = %s, want gpt-4o-mini", cfg.AI.Model)
		}
		if cfg.AI.Timeout != 30*time.Second {
			t.Errorf("AI.Timeout = %v, want 30s", cfg.AI.Timeout)
		}
		if cfg.AdvancedAnalysisEnabled() {
			t.Errorf("AdvancedAnalysisEnabled() = true, want false without API key")
		}
		if cfg.Scraper.NavigationTimeout != 45*time.Second {
			t.Errorf("Scraper.NavigationTimeout = %v, want 45s", cfg.Scraper.NavigationTimeout)
		}
		if cfg.Scraper.ScrollCycles != 3 {
			t.Errorf("Scraper.ScrollCycles = %d, want 3", cfg.Scraper.ScrollCycles)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "info" || cfg.Log.Output != "console" {
			t.Errorf("Log = %+v, want info level on console", cfg.Log)
		}
		if cfg.Log.File.MaxSize != 100 {
			t.Errorf("Log.File.MaxSize = %d, want 100", cfg.Log.File.MaxSize)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("DECORLENS_SERVER_PORT", "9090")
		t.Setenv("DECORLENS_SERVER_ENVIRONMENT", "production")
		t.Setenv("DECORLENS_AI_API_KEY", "sk-test")
		t.Setenv("DECORLENS_AI_TIMEOUT", "10s")
		t.Setenv("DECORLENS_SCRAPER_SCROLL_CYCLES", "5")
		t.Setenv("DECORLENS_CACHE_TYPE", "redis")
		t.Setenv("DECORLENS_CACHE_REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("DECORLENS_CACHE_TTL", "24h")
		t.Setenv("DECORLENS_RATELIMIT_PER_IP", "200")
		t.Setenv("DECORLENS_LOG_LEVEL", "debug")
		t.Setenv("DECORLENS_LOG_FILE_MAX_SIZE", "50")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if !cfg.AdvancedAnalysisEnabled() {
			t.Errorf("AdvancedAnalysisEnabled() = false, want true")
		}
		if cfg.AI.Timeout != 10*time.Second {
			t.Errorf("AI.Timeout = %v, want 10s", cfg.AI.Timeout)
		}
		if cfg.Scraper.ScrollCycles != 5 {
			t.Errorf("Scraper.ScrollCycles = %d, want 5", cfg.Scraper.ScrollCycles)
		}
		if cfg.Cache.Type != "redis" || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
			t.Errorf("Cache = %+v, want redis at localhost", cfg.Cache)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
		if cfg.Log.File.MaxSize != 50 {
			t.Errorf("Log.File.MaxSize = %d, want 50", cfg.Log.File.MaxSize)
		}
	})

	t.Run("reads config.yaml from the working directory", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)

		content := `
server:
  port: "7070"
cache:
  type: none
scraper:
  profile_path: profiles/trendyol.yaml
`
		if err := os.WriteFile("config.yaml", []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config.yaml: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Cache.Type != "none" {
			t.Errorf("Cache.Type = %s, want none", cfg.Cache.Type)
		}
		if cfg.Scraper.ProfilePath != "profiles/trendyol.yaml" {
			t.Errorf("Scraper.ProfilePath = %s, want profiles/trendyol.yaml", cfg.Scraper.ProfilePath)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("DECORLENS_CACHE_TYPE", "memcached")

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("DECORLENS_CACHE_TYPE", "redis")

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error when redis URL is missing")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		chdir(t, t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		chdir(t, t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1

   # indented comment
TEST_VAR_2=value2
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		// registers cleanup for the variables the file sets
		t.Setenv("TEST_VAR_1", "")
		t.Setenv("TEST_VAR_2", "")
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if _, ok := os.LookupEnv("TEST_COMMENTED"); ok {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})

	t.Run("feeds Load", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("DECORLENS_AI_API_KEY", "")
		os.Unsetenv("DECORLENS_AI_API_KEY")

		if err := os.WriteFile(".env", []byte("DECORLENS_AI_API_KEY=sk-from-dotenv\n"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.AI.APIKey != "sk-from-dotenv" {
			t.Errorf("AI.APIKey = %s, want sk-from-dotenv", cfg.AI.APIKey)
		}
	})
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Cache:  CacheConfig{Type: "memory"},
		Log:    logger.DefaultConfig(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid memory cache", mutate: func(c *Config) {}},
		{name: "cache disabled", mutate: func(c *Config) { c.Cache.Type = "none" }},
		{
			name:   "redis with URL",
			mutate: func(c *Config) { c.Cache.Type = "redis"; c.Cache.RedisURL = "redis://localhost:6379" },
		},
		{
			name:    "redis without URL",
			mutate:  func(c *Config) { c.Cache.Type = "redis" },
			wantErr: "redis URL is required",
		},
		{
			name:    "invalid cache type",
			mutate:  func(c *Config) { c.Cache.Type = "disk" },
			wantErr: "cache type must be",
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "negative scroll cycles",
			mutate:  func(c *Config) { c.Scraper.ScrollCycles = -1 },
			wantErr: "scroll_cycles",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.RateLimit.PerIP = -5 },
			wantErr: "per_ip",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore Chdir(%q): %v", old, err)
		}
	})
}
