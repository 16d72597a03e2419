package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend  BackendConfig
	Redis    RedisConfig
	Session  SessionConfig
	CORS     CORSConfig
	Log      LogConfig
	Alerts   AlertsConfig
	Expiry   ExpiryConfig
	SOS      SOSConfig
	Metrics  MetricsConfig
	Location *time.Location
}

// BackendConfig selects the remote bus pass API origin.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls how portal sessions are keyed and how long they live.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AlertsConfig tunes the admin alert monitor.
type AlertsConfig struct {
	PollInterval time.Duration
	PageSize     int
}

// ExpiryConfig tunes the pass countdown.
type ExpiryConfig struct {
	Tick time.Duration
}

// SOSConfig governs emergency alert submission.
type SOSConfig struct {
	DefaultMessage     string
	MaxMessageLength   int
	GeolocationTimeout time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	baseURL := strings.TrimRight(strings.TrimSpace(v.GetString("BACKEND_BASE_URL")), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.New("BACKEND_BASE_URL must be an absolute URL")
	}
	cfg.Backend = BackendConfig{
		BaseURL: baseURL,
		Timeout: parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		CookieName: v.GetString("SESSION_COOKIE"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		Secure:     cfg.Env == EnvProduction,
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	pageSize := v.GetInt("ALERT_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 8
	}
	cfg.Alerts = AlertsConfig{
		PollInterval: parseDuration(v.GetString("ALERT_POLL_INTERVAL"), 30*time.Second),
		PageSize:     pageSize,
	}

	cfg.Expiry = ExpiryConfig{
		Tick: parseDuration(v.GetString("EXPIRY_TICK"), time.Second),
	}

	maxLen := v.GetInt("SOS_MAX_MESSAGE_LENGTH")
	if maxLen <= 0 {
		maxLen = 500
	}
	cfg.SOS = SOSConfig{
		DefaultMessage:     v.GetString("SOS_DEFAULT_MESSAGE"),
		MaxMessageLength:   maxLen,
		GeolocationTimeout: parseDuration(v.GetString("GEOLOCATION_TIMEOUT"), 10*time.Second),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	loc, err := loadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8081")
	v.SetDefault("BACKEND_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_COOKIE", "buspass_session")
	v.SetDefault("SESSION_TTL", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ALERT_POLL_INTERVAL", "30s")
	v.SetDefault("ALERT_PAGE_SIZE", 8)
	v.SetDefault("EXPIRY_TICK", "1s")

	v.SetDefault("SOS_DEFAULT_MESSAGE", "Emergency! I need help!")
	v.SetDefault("SOS_MAX_MESSAGE_LENGTH", 500)
	v.SetDefault("GEOLOCATION_TIMEOUT", "10s")

	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("ENABLE_METRICS", true)
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
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
