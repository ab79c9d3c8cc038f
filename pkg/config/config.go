package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuditBackend selects where the audit trail is persisted
type AuditBackend string

const (
	AuditFile     AuditBackend = "file"     // JSONL files on local disk (default)
	AuditPostgres AuditBackend = "postgres" // PostgreSQL, for shared deployments
)

// ExposureLevel controls how much detail analyst-facing summaries carry
type ExposureLevel string

const (
	ExposureMinimal  ExposureLevel = "minimal"
	ExposureModerate ExposureLevel = "moderate"
	ExposureDetailed ExposureLevel = "detailed"
)

// Config holds global settings for the GroomSafe service
// All settings can be configured via environment variables or programmatically
type Config struct {
	// === Core Settings ===
	HTTPPort    string // Port for the HTTP API (default: "8090")
	LexiconPath string // Optional YAML file overriding the built-in phrase lexicon

	// === Scoring Thresholds (0 - 100) ===
	// Tune these to balance triage capacity vs. caution
	ReviewThreshold   float64 // Score at or above this triggers mandatory human review (default: 60)
	CriticalThreshold float64 // Score at or above this always triggers review (default: 80)

	// === Audit Trail ===
	AuditBackend AuditBackend // Where audit entries are persisted: "file", "postgres"
	AuditLogDir  string       // Directory for JSONL session files (file backend)
	PostgresDSN  string       // Connection string (postgres backend)

	// === Analyst Exposure Limits ===
	// Caps on what a single analyst session may review before a break
	MaxCasesPerSession    int // Total cases per session (default: 20)
	MaxHighRiskPerSession int // High/critical cases per session (default: 5)
	MaxSessionMinutes     int // Session duration cap in minutes (default: 120)
	MandatoryBreakMinutes int // Break length once a limit is hit (default: 15)

	DefaultExposureLevel ExposureLevel // Detail level for summaries (default: "minimal")

	// === Analyst Session Store ===
	RedisEnabled     bool          // Use Redis for session state; in-memory otherwise
	RedisAddr        string        // Redis address (default: "localhost:6379")
	RedisPassword    string        // Redis password (optional)
	RedisDB          int           // Redis logical database (default: 0)
	ShieldSessionTTL time.Duration // Idle expiry for analyst sessions (default: 24h)

	// === Batch Assessment ===
	BatchConcurrency int // Concurrent assessments per batch request (default: 4)
	BatchMaxSize     int // Maximum conversations per batch request (default: 100)
}

// NewDefaultConfig creates a Config with sensible defaults
// All settings can be overridden via environment variables
func NewDefaultConfig() *Config {
	cfg := &Config{
		// Core
		HTTPPort:    GetEnv("GROOMSAFE_PORT", "8090"),
		LexiconPath: GetEnv("GROOMSAFE_LEXICON_PATH", ""),

		// Thresholds - tune these based on your triage capacity
		ReviewThreshold:   GetEnvFloat("GROOMSAFE_REVIEW_THRESHOLD", 60),
		CriticalThreshold: GetEnvFloat("GROOMSAFE_CRITICAL_THRESHOLD", 80),

		// Audit trail
		AuditBackend: AuditBackend(GetEnv("GROOMSAFE_AUDIT_BACKEND", "file")),
		AuditLogDir:  GetEnv("GROOMSAFE_AUDIT_LOG_DIR", "audit_logs"),
		PostgresDSN:  GetEnv("GROOMSAFE_POSTGRES_DSN", ""),

		// Analyst exposure limits
		MaxCasesPerSession:    clampInt(GetEnvInt("GROOMSAFE_MAX_CASES", 20), 1, 1000),
		MaxHighRiskPerSession: clampInt(GetEnvInt("GROOMSAFE_MAX_HIGH_RISK", 5), 1, 1000),
		MaxSessionMinutes:     clampInt(GetEnvInt("GROOMSAFE_MAX_SESSION_MINUTES", 120), 1, 1440),
		MandatoryBreakMinutes: clampInt(GetEnvInt("GROOMSAFE_BREAK_MINUTES", 15), 1, 240),
		DefaultExposureLevel:  ExposureLevel(GetEnv("GROOMSAFE_EXPOSURE_LEVEL", "minimal")),

		// Analyst session store
		RedisEnabled:     GetEnvBool("GROOMSAFE_REDIS_ENABLED", false),
		RedisAddr:        GetEnv("GROOMSAFE_REDIS_ADDR", "localhost:6379"),
		RedisPassword:    GetEnv("GROOMSAFE_REDIS_PASSWORD", ""),
		RedisDB:          GetEnvInt("GROOMSAFE_REDIS_DB", 0),
		ShieldSessionTTL: time.Duration(GetEnvInt("GROOMSAFE_SESSION_TTL_SECONDS", 86400)) * time.Second,

		// Batch assessment
		BatchConcurrency: clampInt(GetEnvInt("GROOMSAFE_BATCH_CONCURRENCY", 4), 1, 64),
		BatchMaxSize:     clampInt(GetEnvInt("GROOMSAFE_BATCH_MAX_SIZE", 100), 1, 10000),
	}

	return cfg
}

// NewLocalConfig creates a Config optimized for local-only operation
// Use this for development and air-gapped research environments
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.AuditBackend = AuditFile
	cfg.RedisEnabled = false
	return cfg
}

// NewHighSafetyConfig creates a Config with stricter analyst protection
// (lower exposure caps, earlier review escalation)
func NewHighSafetyConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ReviewThreshold = 50
	cfg.MaxCasesPerSession = 10
	cfg.MaxHighRiskPerSession = 3
	cfg.MaxSessionMinutes = 90
	cfg.DefaultExposureLevel = ExposureMinimal
	return cfg
}

// NewResearchConfig creates a Config for trained-researcher workflows
// where detailed summaries and longer sessions are acceptable
func NewResearchConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.DefaultExposureLevel = ExposureDetailed
	cfg.MaxCasesPerSession = 50
	cfg.MaxSessionMinutes = 240
	return cfg
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing
// These are exported for use by other packages

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// Validate checks that the configuration is internally consistent.
// In production mode missing backend settings are errors; in development
// they are logged as warnings where a local fallback exists.
func (c *Config) Validate() error {
	isProduction := strings.ToLower(os.Getenv("GROOMSAFE_ENV")) == "production" ||
		strings.ToLower(os.Getenv("GROOMSAFE_ENV")) == "prod"

	var problems []string

	switch c.AuditBackend {
	case AuditFile:
		if c.AuditLogDir == "" {
			problems = append(problems, "GROOMSAFE_AUDIT_LOG_DIR must be set for the file audit backend")
		}
	case AuditPostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, "GROOMSAFE_POSTGRES_DSN must be set for the postgres audit backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown audit backend %q", c.AuditBackend))
	}

	switch c.DefaultExposureLevel {
	case ExposureMinimal, ExposureModerate, ExposureDetailed:
	default:
		problems = append(problems, fmt.Sprintf("unknown exposure level %q", c.DefaultExposureLevel))
	}

	if c.RedisEnabled && c.RedisAddr == "" {
		problems = append(problems, "GROOMSAFE_REDIS_ADDR must be set when Redis is enabled")
	}

	if c.ReviewThreshold < 0 || c.ReviewThreshold > 100 {
		problems = append(problems, "GROOMSAFE_REVIEW_THRESHOLD must be between 0 and 100")
	}
	if c.CriticalThreshold < c.ReviewThreshold || c.CriticalThreshold > 100 {
		problems = append(problems, "GROOMSAFE_CRITICAL_THRESHOLD must be between the review threshold and 100")
	}

	if isProduction && c.AuditBackend == AuditFile {
		log.Printf("[STARTUP] Warning: file audit backend in production - entries stay on local disk only")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}
