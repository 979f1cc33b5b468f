package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreMemory   = "memory"
	StorePostgres = "postgres"

	defaultJWTSecret     = "dev_secret"
	defaultAdminSecret   = "dev_admin"
	defaultStudentSecret = "dev_student"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Grades    GradesConfig
	Assistant AssistantConfig
	Seed      SeedConfig
	CORS      CORSConfig
	Log       LogConfig
}

// StoreConfig selects the entity store backend.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs caching of computed averages.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig holds the shared role secrets exchanged for tokens.
// Values may be plain text or bcrypt hashes.
type AuthConfig struct {
	AdminSecret   string
	StudentSecret string
}

// GradesConfig configures the grading scale and average presentation.
type GradesConfig struct {
	ScaleMin         float64
	ScaleMax         float64
	TrendThreshold   float64
	DisplayPrecision int
	PassThreshold    float64
}

// AssistantConfig configures the conversational assistant bridge.
type AssistantConfig struct {
	Enabled         bool
	APIKey          string
	Model           string
	Timeout         time.Duration
	FallbackMessage string
}

// SeedConfig toggles creation of the default subject catalog on startup.
type SeedConfig struct {
	Defaults bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = strings.TrimRight(v.GetString("API_PREFIX"), "/")

	cfg.Store = StoreConfig{Driver: strings.ToLower(v.GetString("STORE_DRIVER"))}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		AdminSecret:   v.GetString("AUTH_ADMIN_SECRET"),
		StudentSecret: v.GetString("AUTH_STUDENT_SECRET"),
	}

	cfg.Grades = GradesConfig{
		ScaleMin:         v.GetFloat64("GRADE_SCALE_MIN"),
		ScaleMax:         v.GetFloat64("GRADE_SCALE_MAX"),
		TrendThreshold:   v.GetFloat64("GRADE_TREND_THRESHOLD"),
		DisplayPrecision: v.GetInt("GRADE_DISPLAY_PRECISION"),
		PassThreshold:    v.GetFloat64("GRADE_PASS_THRESHOLD"),
	}

	cfg.Assistant = AssistantConfig{
		Enabled:         v.GetBool("ENABLE_ASSISTANT"),
		APIKey:          v.GetString("ASSISTANT_API_KEY"),
		Model:           v.GetString("ASSISTANT_MODEL"),
		Timeout:         parseDuration(v.GetString("ASSISTANT_TIMEOUT"), 20*time.Second),
		FallbackMessage: v.GetString("ASSISTANT_FALLBACK_MESSAGE"),
	}

	cfg.Seed = SeedConfig{Defaults: v.GetBool("SEED_DEFAULTS")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case StoreMemory, StorePostgres:
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Grades.ScaleMin >= c.Grades.ScaleMax {
		problems = append(problems, "GRADE_SCALE_MIN must be lower than GRADE_SCALE_MAX")
	}
	if c.Grades.TrendThreshold < 0 {
		problems = append(problems, "GRADE_TREND_THRESHOLD must not be negative")
	}
	if c.Grades.DisplayPrecision < 0 {
		problems = append(problems, "GRADE_DISPLAY_PRECISION must not be negative")
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.Auth.AdminSecret == "" || c.Auth.StudentSecret == "" {
		problems = append(problems, "AUTH_ADMIN_SECRET and AUTH_STUDENT_SECRET are required")
	}
	if c.Assistant.Enabled && c.Assistant.APIKey == "" {
		problems = append(problems, "ASSISTANT_API_KEY is required when ENABLE_ASSISTANT is set")
	}
	if c.Env == EnvProduction {
		if c.JWT.Secret == defaultJWTSecret || c.Auth.AdminSecret == defaultAdminSecret || c.Auth.StudentSecret == defaultStudentSecret {
			problems = append(problems, "default secrets are not allowed in production")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("STORE_DRIVER", StoreMemory)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "notenpfad")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "1m")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "notenpfad-api")
	v.SetDefault("AUTH_ADMIN_SECRET", defaultAdminSecret)
	v.SetDefault("AUTH_STUDENT_SECRET", defaultStudentSecret)

	v.SetDefault("GRADE_SCALE_MIN", 1.0)
	v.SetDefault("GRADE_SCALE_MAX", 6.0)
	v.SetDefault("GRADE_TREND_THRESHOLD", 0.0)
	v.SetDefault("GRADE_DISPLAY_PRECISION", 2)
	v.SetDefault("GRADE_PASS_THRESHOLD", 4.75)

	v.SetDefault("ENABLE_ASSISTANT", false)
	v.SetDefault("ASSISTANT_API_KEY", "")
	v.SetDefault("ASSISTANT_MODEL", "gemini-1.5-flash")
	v.SetDefault("ASSISTANT_TIMEOUT", "20s")
	v.SetDefault("ASSISTANT_FALLBACK_MESSAGE", "Entschuldigung, ich bin gerade etwas verwirrt. Versuche es später nochmal.")

	v.SetDefault("SEED_DEFAULTS", true)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
