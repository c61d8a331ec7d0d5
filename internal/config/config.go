// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv          string `env:"APP_ENV" envDefault:"dev"`
	Port            int    `env:"PORT" envDefault:"8080"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-cv-fairness"`
	// RedisURL is optional; when empty the remote scorer runs without a shared rate limiter.
	RedisURL string `env:"REDIS_URL" envDefault:""`
	// Remote criterion scorer. Empty URL means the heuristic scorer is the only scorer.
	RemoteScorerURL        string        `env:"REMOTE_SCORER_URL" envDefault:""`
	RemoteScorerAPIKey     string        `env:"REMOTE_SCORER_API_KEY"`
	RemoteScorerTimeout    time.Duration `env:"REMOTE_SCORER_TIMEOUT" envDefault:"20s"`
	RemoteScorerRatePerMin int           `env:"REMOTE_SCORER_RATE_PER_MIN" envDefault:"60"`
	// Circuit breaker for the remote scorer
	BreakerMaxFailures int           `env:"BREAKER_MAX_FAILURES" envDefault:"3"`
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
	// Remote scorer backoff configuration
	ScorerBackoffMaxElapsedTime  time.Duration `env:"SCORER_BACKOFF_MAX_ELAPSED_TIME" envDefault:"30s"`
	ScorerBackoffInitialInterval time.Duration `env:"SCORER_BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	ScorerBackoffMaxInterval     time.Duration `env:"SCORER_BACKOFF_MAX_INTERVAL" envDefault:"5s"`
	ScorerBackoffMultiplier      float64       `env:"SCORER_BACKOFF_MULTIPLIER" envDefault:"1.5"`
	// Audit tuning
	BlindingScoreDeltaThreshold float64 `env:"BLINDING_SCORE_DELTA_THRESHOLD" envDefault:"0.5"`
	AuditDebugFlags             bool    `env:"AUDIT_DEBUG_FLAGS" envDefault:"false"`
	// Request limits
	MaxCandidatesPerBatch int   `env:"MAX_CANDIDATES_PER_BATCH" envDefault:"500"`
	MaxCVChars            int   `env:"MAX_CV_CHARS" envDefault:"50000"`
	MaxBodyMB             int64 `env:"MAX_BODY_MB" envDefault:"10"`
	// SeedFile optionally points at a YAML file of demo jobs and candidates loaded at startup.
	SeedFile string `env:"SEED_FILE" envDefault:""`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if cfg.BlindingScoreDeltaThreshold < 0 {
		return Config{}, fmt.Errorf("op=config.Load: BLINDING_SCORE_DELTA_THRESHOLD must be >= 0")
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// RemoteScorerEnabled reports whether an alternate criterion scorer is configured.
func (c Config) RemoteScorerEnabled() bool { return strings.TrimSpace(c.RemoteScorerURL) != "" }

// GetScorerBackoffConfig returns backoff configuration appropriate for the current environment.
// In test environments, uses much shorter timeouts for faster test execution.
func (c Config) GetScorerBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 10 * time.Millisecond, 100 * time.Millisecond, 2.0
	}
	return c.ScorerBackoffMaxElapsedTime, c.ScorerBackoffInitialInterval, c.ScorerBackoffMaxInterval, c.ScorerBackoffMultiplier
}
