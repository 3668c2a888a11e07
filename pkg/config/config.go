package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	JWT      JWTConfig
	Risk     RiskConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration for the audit event sink
type NATSConfig struct {
	URL     string
	Subject string
	Enabled bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in hours
}

// RiskConfig holds risk tier breakpoints and escalation thresholds.
// Breakpoints are on the 0-100 composite score scale.
type RiskConfig struct {
	MediumThreshold     float64
	HighThreshold       float64
	CriticalThreshold   float64
	EscalationThreshold float64 // crossing it triggers SIU referral
	AutoDenyScore       float64
	InvestigateScore    float64
	SupervisorAuthority float64 // max amount approvable without human review
}

// Validate checks that risk breakpoints are strictly increasing and the
// escalation threshold is not below the HIGH breakpoint. Called at load
// time so a bad deployment fails at startup, never during scoring.
func (c *RiskConfig) Validate() error {
	if !(c.MediumThreshold < c.HighThreshold && c.HighThreshold < c.CriticalThreshold) {
		return fmt.Errorf("risk tier thresholds must be strictly increasing: medium=%.1f high=%.1f critical=%.1f",
			c.MediumThreshold, c.HighThreshold, c.CriticalThreshold)
	}
	if c.EscalationThreshold < c.HighThreshold {
		return fmt.Errorf("escalation threshold %.1f must be at or above the high breakpoint %.1f",
			c.EscalationThreshold, c.HighThreshold)
	}
	if c.InvestigateScore > c.AutoDenyScore {
		return fmt.Errorf("investigate score %.1f must not exceed auto-deny score %.1f",
			c.InvestigateScore, c.AutoDenyScore)
	}
	return nil
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "claims"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_AUDIT_SUBJECT", "claims.audit"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Expiration: getEnvAsInt("JWT_EXPIRATION", 24),
		},
		Risk: RiskConfig{
			MediumThreshold:     getEnvAsFloat("RISK_MEDIUM_THRESHOLD", 30),
			HighThreshold:       getEnvAsFloat("RISK_HIGH_THRESHOLD", 50),
			CriticalThreshold:   getEnvAsFloat("RISK_CRITICAL_THRESHOLD", 75),
			EscalationThreshold: getEnvAsFloat("RISK_ESCALATION_THRESHOLD", 75),
			AutoDenyScore:       getEnvAsFloat("RISK_AUTO_DENY_SCORE", 85),
			InvestigateScore:    getEnvAsFloat("RISK_INVESTIGATE_SCORE", 50),
			SupervisorAuthority: getEnvAsFloat("SUPERVISOR_AUTHORITY_LIMIT", 50000),
		},
	}

	if err := cfg.Risk.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
