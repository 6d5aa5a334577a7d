package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "Woodland"
	defaultAppEnv           = "development"
	defaultPort             = "42067"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultOTPTTL           = 10 * time.Minute
	defaultOTPRequestsPerHr = 5
	defaultOTPVerifyPerHr   = 10
	defaultLoginPerHr       = 10
	defaultAdminTokenTTL    = 2 * time.Hour
	defaultProximityMeters  = 3.048
	defaultVisitorIdleTTL   = 30 * time.Minute
	defaultSMTPPort         = 587
	defaultMailFrom         = "saintmargaretsbayarea@gmail.com"
	defaultDeliveryRetries  = 2
	defaultWeatherCacheTTL  = 10 * time.Minute
	defaultWeatherBaseURL   = "https://api.openweathermap.org/data/2.5/weather"
	defaultMQTTClientID     = "woodland-api"
	defaultMQTTTopic        = "woodland/visitors/+/location"
	defaultAllowedOrigins   = "*"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	AllowedOrigins string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	OTP       OTPConfig
	Accounts  AccountsConfig
	SMTP      SMTPConfig
	Admin     AdminConfig
	Proximity ProximityConfig
	MQTT      MQTTConfig
	Weather   WeatherConfig
}

// OTPConfig controls code lifetime and request throttling.
type OTPConfig struct {
	// TTL of zero keeps codes until they are verified or overwritten.
	TTL                   time.Duration
	RequestsPerHour       int
	VerifyAttemptsPerHour int
}

// AccountsConfig throttles visitor sign-in attempts per email.
type AccountsConfig struct {
	LoginAttemptsPerHour int
}

// SMTPConfig holds outgoing mail settings. An empty Host logs mail instead of sending it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Retries  int
}

// AdminConfig holds moderation credentials.
type AdminConfig struct {
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

// ProximityConfig holds the landmark notification radius and how long a
// silent visitor's visit is remembered.
type ProximityConfig struct {
	ThresholdMeters float64
	VisitorIdleTTL  time.Duration
}

// MQTTConfig configures the location feed. An empty BrokerURL disables it.
type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
}

// WeatherConfig configures the OpenWeatherMap proxy. An empty APIKey disables it.
type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", defaultAllowedOrigins),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		OTP: OTPConfig{
			TTL:                   defaultOTPTTL,
			RequestsPerHour:       defaultOTPRequestsPerHr,
			VerifyAttemptsPerHour: defaultOTPVerifyPerHr,
		},
		Accounts: AccountsConfig{
			LoginAttemptsPerHour: defaultLoginPerHr,
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     defaultSMTPPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", defaultMailFrom),
			Retries:  defaultDeliveryRetries,
		},
		Admin: AdminConfig{
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			JWTSecret:    os.Getenv("ADMIN_JWT_SECRET"),
			TokenTTL:     defaultAdminTokenTTL,
		},
		Proximity: ProximityConfig{
			ThresholdMeters: defaultProximityMeters,
			VisitorIdleTTL:  defaultVisitorIdleTTL,
		},
		MQTT: MQTTConfig{
			BrokerURL: os.Getenv("MQTT_BROKER_URL"),
			ClientID:  getEnv("MQTT_CLIENT_ID", defaultMQTTClientID),
			Topic:     getEnv("MQTT_LOCATION_TOPIC", defaultMQTTTopic),
			Username:  os.Getenv("MQTT_USERNAME"),
			Password:  os.Getenv("MQTT_PASSWORD"),
		},
		Weather: WeatherConfig{
			APIKey:   os.Getenv("WEATHER_API_KEY"),
			BaseURL:  getEnv("WEATHER_BASE_URL", defaultWeatherBaseURL),
			CacheTTL: defaultWeatherCacheTTL,
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = secondsOrDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = secondsOrDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTP.TTL, err = getDuration("OTP_TTL", cfg.OTP.TTL); err != nil {
		return Config{}, err
	}
	if cfg.OTP.RequestsPerHour, err = getInt("OTP_REQUESTS_PER_HOUR", cfg.OTP.RequestsPerHour); err != nil {
		return Config{}, err
	}
	if cfg.OTP.VerifyAttemptsPerHour, err = getInt("OTP_VERIFY_ATTEMPTS_PER_HOUR", cfg.OTP.VerifyAttemptsPerHour); err != nil {
		return Config{}, err
	}
	if cfg.Accounts.LoginAttemptsPerHour, err = getInt("LOGIN_ATTEMPTS_PER_HOUR", cfg.Accounts.LoginAttemptsPerHour); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.Port, err = getInt("SMTP_PORT", cfg.SMTP.Port); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.Retries, err = getInt("SMTP_RETRIES", cfg.SMTP.Retries); err != nil {
		return Config{}, err
	}
	if cfg.Admin.TokenTTL, err = getDuration("ADMIN_TOKEN_TTL", cfg.Admin.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Weather.CacheTTL, err = getDuration("WEATHER_CACHE_TTL", cfg.Weather.CacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.Proximity.VisitorIdleTTL, err = getDuration("PROXIMITY_VISITOR_IDLE_TTL", cfg.Proximity.VisitorIdleTTL); err != nil {
		return Config{}, err
	}
	if cfg.Proximity.VisitorIdleTTL <= 0 {
		return Config{}, fmt.Errorf("PROXIMITY_VISITOR_IDLE_TTL must be positive")
	}
	if v := os.Getenv("PROXIMITY_THRESHOLD_METERS"); v != "" {
		meters, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PROXIMITY_THRESHOLD_METERS: %w", err)
		}
		if meters <= 0 {
			return Config{}, fmt.Errorf("PROXIMITY_THRESHOLD_METERS must be positive")
		}
		cfg.Proximity.ThresholdMeters = meters
	}

	if cfg.OTP.TTL < 0 {
		return Config{}, fmt.Errorf("OTP_TTL must not be negative")
	}

	if !cfg.IsDev() {
		if cfg.Admin.PasswordHash == "" {
			return Config{}, fmt.Errorf("ADMIN_PASSWORD_HASH must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.Admin.JWTSecret == "" {
			return Config{}, fmt.Errorf("ADMIN_JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.SMTP.Host == "" {
			return Config{}, fmt.Errorf("SMTP_HOST must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a development environment where
// backing services are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func secondsOrDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return getDuration(durationKey, fallback)
}
