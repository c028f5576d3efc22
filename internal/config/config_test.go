package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig(t *testing.T) {
	// Устанавливаем переменные окружения для теста
	t.Setenv("TTS_URL", "http://localhost:9000/rpc")
	t.Setenv("TTS_AUTH_ID", "test_auth")
	t.Setenv("TTS_APP_ID", "test_app")
	t.Setenv("TTS_SESSION_PARAMS", "vcn=xiaoyan, speed=50,broken")
	t.Setenv("TTS_CLEANUP_TIMEOUT", "2s")

	// Загружаем конфигурацию
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Проверяем значения
	assert.Equal(t, "http://localhost:9000/rpc", cfg.TTS.URL)
	assert.Equal(t, "test_auth", cfg.TTS.AuthID)
	assert.Equal(t, "test_app", cfg.TTS.AppID)
	assert.Equal(t, map[string]string{"vcn": "xiaoyan", "speed": "50"}, cfg.TTS.SessionParams)
	assert.Equal(t, 2*time.Second, cfg.TTS.CleanupTimeout)

	// Проверяем значения по умолчанию
	assert.Equal(t, "", cfg.TTS.APIMethod)
	assert.Equal(t, 30*time.Second, cfg.TTS.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.TTS.SessionTimeout)
	assert.Equal(t, "output.pcm", cfg.TTS.OutputPath)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.True(t, cfg.App.MetricsEnabled)
}

func TestLoadConfig_MissingURL(t *testing.T) {
	t.Setenv("TTS_URL", "")
	t.Setenv("TTS_AUTH_ID", "test_auth")
	t.Setenv("TTS_APP_ID", "test_app")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TTS_URL")
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{name: "пустая строка", raw: "", want: map[string]string{}},
		{name: "одна пара", raw: "vcn=xiaoyan", want: map[string]string{"vcn": "xiaoyan"}},
		{name: "пробелы", raw: " aue = raw , auf=audio/L16;rate=16000 ", want: map[string]string{"aue": "raw", "auf": "audio/L16;rate=16000"}},
		{name: "без ключа", raw: "=x,y", want: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseParams(tt.raw))
		})
	}
}

func TestAppConfigMethods(t *testing.T) {
	cfg := &AppConfig{
		Env:      "development",
		LogLevel: "debug",
	}

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, zap.DebugLevel, cfg.GetLogLevel().Level())

	cfg.Env = "production"
	cfg.LogLevel = "unknown"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zap.InfoLevel, cfg.GetLogLevel().Level())
}

func TestValidateConfig(t *testing.T) {
	// Тест с пустыми обязательными полями
	cfg := &Config{}
	err := validateConfig(cfg)
	assert.Error(t, err)

	// Тест с корректной конфигурацией
	cfg = &Config{
		TTS: TTSConfig{
			URL:            "http://localhost:9000/rpc",
			AuthID:         "auth",
			AppID:          "app",
			RequestTimeout: time.Second,
			SessionTimeout: time.Minute,
			CleanupTimeout: time.Second,
		},
	}
	err = validateConfig(cfg)
	assert.NoError(t, err)
}

func TestValidateConfig_Timeouts(t *testing.T) {
	valid := TTSConfig{
		URL:            "http://localhost:9000/rpc",
		AuthID:         "auth",
		AppID:          "app",
		RequestTimeout: time.Second,
		SessionTimeout: time.Minute,
		CleanupTimeout: time.Second,
	}

	tests := []struct {
		name   string
		modify func(c *TTSConfig)
		want   string
	}{
		{name: "нулевой таймаут запроса", modify: func(c *TTSConfig) { c.RequestTimeout = 0 }, want: "TTS_REQUEST_TIMEOUT"},
		{name: "нулевой таймаут сессии", modify: func(c *TTSConfig) { c.SessionTimeout = 0 }, want: "TTS_SESSION_TIMEOUT"},
		{name: "отрицательный таймаут очистки", modify: func(c *TTSConfig) { c.CleanupTimeout = -time.Second }, want: "TTS_CLEANUP_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tts := valid
			tt.modify(&tts)

			err := validateConfig(&Config{TTS: tts})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_InvalidSessionTimeout(t *testing.T) {
	t.Setenv("TTS_URL", "http://localhost:9000/rpc")
	t.Setenv("TTS_AUTH_ID", "test_auth")
	t.Setenv("TTS_APP_ID", "test_app")
	t.Setenv("TTS_SESSION_TIMEOUT", "0s")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TTS_SESSION_TIMEOUT")
}
