package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Env struct {
	AppAddr string `mapstructure:"APP_ADDR"`
	GinMode string `mapstructure:"GIN_MODE"`
	Env     string `mapstructure:"ENV"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Booking API.
	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	// Wizard state and cookies.
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	MySQLDSN       string        `mapstructure:"MYSQL_DSN"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitPerMin    int    `mapstructure:"RATE_LIMIT_PER_MIN"`

	// Booking defaults sent with every create request.
	BookingNumPersons  int `mapstructure:"BOOKING_NUM_PERSONS"`
	BookingNumVehicles int `mapstructure:"BOOKING_NUM_VEHICLES"`

	AutocompleteDebounce time.Duration `mapstructure:"AUTOCOMPLETE_DEBOUNCE"`
	OTPResendCooldown    time.Duration `mapstructure:"OTP_RESEND_COOLDOWN"`
	DisplayTimezone      string        `mapstructure:"DISPLAY_TIMEZONE"`
}

// LoadEnv reads .env (when present), config.yaml (when present) and the process
// environment, in increasing order of precedence.
func LoadEnv() Env {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("GIN_MODE", "")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BACKEND_URL", "http://localhost:3001")
	v.SetDefault("BACKEND_TIMEOUT", "0s")
	v.SetDefault("SESSION_SECRET", "dev-session-secret-change-me")
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("MYSQL_DSN", "root:@tcp(127.0.0.1:3306)/dotrip?parseTime=true&charset=utf8mb4")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("BOOKING_NUM_PERSONS", 4)
	v.SetDefault("BOOKING_NUM_VEHICLES", 1)
	v.SetDefault("AUTOCOMPLETE_DEBOUNCE", "300ms")
	v.SetDefault("OTP_RESEND_COOLDOWN", "60s")
	v.SetDefault("DISPLAY_TIMEZONE", "Asia/Kolkata")

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	env.BackendURL = strings.TrimRight(strings.TrimSpace(env.BackendURL), "/")
	env.SessionBackend = strings.ToLower(strings.TrimSpace(env.SessionBackend))
	return env
}

func (e Env) IsProduction() bool {
	return e.Env == "production"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into a clean list.
func (e Env) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(e.CORSAllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DisplayLocation resolves DISPLAY_TIMEZONE, falling back to UTC.
func (e Env) DisplayLocation() *time.Location {
	if strings.TrimSpace(e.DisplayTimezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.DisplayTimezone)
	if err != nil {
		log.Printf("warning: unknown DISPLAY_TIMEZONE %q, using UTC", e.DisplayTimezone)
		return time.UTC
	}
	return loc
}
