package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const (
	AuthProviderLocal    = "local"
	AuthProviderSupabase = "supabase"

	EnvProduction = "production"
)

type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	MySQL     MySQLConfig
	Auth      AuthConfig
	JWT       JWTConfig
	Tokens    TokenConfig
	Password  PasswordConfig
	Frontend  FrontendConfig
	SMTP      SMTPConfig
	Supabase  SupabaseConfig
	YClients  YClientsConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig
	Log       LogConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Env            string
	MigrateOnStart bool
}

type HTTPConfig struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

type MySQLConfig struct {
	DSN string
}

type AuthConfig struct {
	Provider string
}

type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

type TokenConfig struct {
	ConfirmTTL time.Duration
	ResetTTL   time.Duration
}

type PasswordConfig struct {
	Policy PasswordPolicy
}

// FrontendConfig holds the base URLs that emailed links point at.
type FrontendConfig struct {
	ConfirmBaseURL string
	ResetBaseURL   string
}

type SupabaseConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
}

type YClientsConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

type LogConfig struct {
	Level  string
	Format string
}

type JobsConfig struct {
	ResetTokenCleanupSchedule string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// MaxPasswordBytes is the longest input bcrypt hashes without error.
const MaxPasswordBytes = 72

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	provider := strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderLocal))
	jwtSecret := os.Getenv("JWT_SECRET")
	supabase := SupabaseConfig{
		URL:            strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		AnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
		ServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
	}

	switch provider {
	case AuthProviderLocal:
		if jwtSecret == "" {
			return nil, errors.New("JWT_SECRET environment variable is required")
		}
	case AuthProviderSupabase:
		if supabase.URL == "" || supabase.AnonKey == "" || supabase.ServiceRoleKey == "" {
			return nil, errors.New("SUPABASE_URL, SUPABASE_ANON_KEY and SUPABASE_SERVICE_ROLE_KEY are required when AUTH_PROVIDER=supabase")
		}
	default:
		return nil, fmt.Errorf("unsupported AUTH_PROVIDER %q", provider)
	}

	smtp, err := loadSMTPConfig()
	if err != nil {
		return nil, err
	}

	frontendURL := os.Getenv("FRONTEND_URL")

	return &Config{
		App: AppConfig{
			Env:            getEnv("APP_ENV", "development"),
			MigrateOnStart: getBoolEnv("MIGRATE_ON_START", true),
		},
		HTTP: HTTPConfig{
			Host:           getEnv("HTTP_HOST", ""),
			Port:           getEnv("HTTP_PORT", getEnv("PORT", "3001")),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		MySQL: MySQLConfig{DSN: mysqlDSN},
		Auth:  AuthConfig{Provider: provider},
		JWT: JWTConfig{
			Secret:     jwtSecret,
			SessionTTL: getDurationEnv("JWT_SESSION_TTL", 7*24*time.Hour),
		},
		Tokens: TokenConfig{
			ConfirmTTL: getDurationEnv("CONFIRM_TOKEN_TTL", 24*time.Hour),
			ResetTTL:   getDurationEnv("RESET_TOKEN_TTL", time.Hour),
		},
		Password: PasswordConfig{Policy: loadPasswordPolicy()},
		Frontend: FrontendConfig{
			ConfirmBaseURL: baseURL(frontendURL, os.Getenv("EMAIL_REDIRECT_URL")),
			ResetBaseURL:   baseURL(frontendURL, os.Getenv("PASSWORD_RESET_REDIRECT_URL")),
		},
		SMTP:     smtp,
		Supabase: supabase,
		YClients: YClientsConfig{
			BaseURL: strings.TrimRight(getEnv("YCLIENTS_BASE_URL", "https://api.yclients.com"), "/"),
			Timeout: time.Duration(getIntEnv("YCLIENTS_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: loadRateLimitConfig(),
		Sentry: SentryConfig{
			DSN:              os.Getenv("SENTRY_DSN"),
			TracesSampleRate: getFloatEnv("SENTRY_TRACES_SAMPLE_RATE", 0.2),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Jobs: JobsConfig{
			ResetTokenCleanupSchedule: getEnv("RESET_TOKEN_CLEANUP_SCHEDULE", "@hourly"),
		},
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func baseURL(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return strings.TrimRight(candidate, "/")
		}
	}
	return "http://localhost:3000"
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", false),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", false),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", false),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getBoolEnv("RATE_LIMIT_ENABLED", true),
		Capacity:       getIntEnv("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   getIntEnv("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: time.Duration(getIntEnv("RATE_LIMIT_REFILL_SECONDS", 6)) * time.Second,
		TTL:            getDurationEnv("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
