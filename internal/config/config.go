package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	TTS TTSConfig
	App AppConfig
}

// TTSConfig содержит настройки подключения к TTS сервису
type TTSConfig struct {
	URL          string
	APIMethod    string
	AuthID       string
	AppID        string
	ExtendParams string
	// SessionParams - дополнительные параметры ssb в формате key=value,key=value
	SessionParams map[string]string

	RequestTimeout time.Duration
	SessionTimeout time.Duration
	CleanupTimeout time.Duration

	Text       string
	OutputPath string
}

type AppConfig struct {
	Env            string
	LogLevel       string
	Port           int
	MetricsEnabled bool
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// TTS
	cfg.TTS.URL = os.Getenv("TTS_URL")
	cfg.TTS.APIMethod = os.Getenv("TTS_API_METHOD")
	cfg.TTS.AuthID = os.Getenv("TTS_AUTH_ID")
	cfg.TTS.AppID = os.Getenv("TTS_APP_ID")
	cfg.TTS.ExtendParams = os.Getenv("TTS_EXTEND_PARAMS")
	cfg.TTS.SessionParams = parseParams(os.Getenv("TTS_SESSION_PARAMS"))
	cfg.TTS.RequestTimeout = getEnvDurationDefault("TTS_REQUEST_TIMEOUT", 30*time.Second)
	cfg.TTS.SessionTimeout = getEnvDurationDefault("TTS_SESSION_TIMEOUT", 2*time.Minute)
	cfg.TTS.CleanupTimeout = getEnvDurationDefault("TTS_CLEANUP_TIMEOUT", 5*time.Second)
	cfg.TTS.Text = os.Getenv("TTS_TEXT")
	cfg.TTS.OutputPath = getEnvDefault("TTS_OUTPUT", "output.pcm")

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.MetricsEnabled = getEnvBoolDefault("METRICS_ENABLED", true)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// parseParams разбирает строку вида "vcn=xiaoyan,speed=50"
func parseParams(raw string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.TTS.URL == "" {
		return fmt.Errorf("TTS_URL не установлен")
	}
	if config.TTS.AuthID == "" {
		return fmt.Errorf("TTS_AUTH_ID не установлен")
	}
	if config.TTS.AppID == "" {
		return fmt.Errorf("TTS_APP_ID не установлен")
	}
	if config.TTS.RequestTimeout <= 0 {
		return fmt.Errorf("TTS_REQUEST_TIMEOUT должен быть положительным")
	}
	if config.TTS.SessionTimeout <= 0 {
		return fmt.Errorf("TTS_SESSION_TIMEOUT должен быть положительным")
	}
	if config.TTS.CleanupTimeout <= 0 {
		return fmt.Errorf("TTS_CLEANUP_TIMEOUT должен быть положительным")
	}

	return nil
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
