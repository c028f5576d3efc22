package tts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aiplus-tts/internal/audio"
	"aiplus-tts/internal/rpc"
)

// ServiceConfig содержит параметры подключения, общие для всех вызовов сервиса
type ServiceConfig struct {
	URL            string
	APIMethod      string
	TTSOption      TTSOption
	CleanupTimeout time.Duration
	Observer       Observer
}

// Service синтезирует текст целиком: одна сессия на вызов, все фрагменты собираются в один буфер
type Service struct {
	client *rpc.Client
	cfg    ServiceConfig
	logger *zap.Logger
}

// NewService создает новый TTS сервис
func NewService(client *rpc.Client, cfg ServiceConfig, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// SynthesizeText преобразует текст в аудио (PCM)
func (s *Service) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	s.logger.Info("🎵 генерируем аудио",
		zap.String("text", text),
		zap.Int("text_length", len(text)))

	collector := audio.NewCollector()
	session := NewSession(s.client, Config{
		OnAudio:        collector.Add,
		Observer:       s.cfg.Observer,
		CleanupTimeout: s.cfg.CleanupTimeout,
	}, s.logger)

	err := session.Start(ctx, StartOptions{
		URL:       s.cfg.URL,
		APIMethod: s.cfg.APIMethod,
		Text:      text,
		TTSOption: s.cfg.TTSOption,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	audioData := collector.Bytes()
	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("chunks", collector.Chunks()),
		zap.Int("audio_size", len(audioData)))

	return audioData, nil
}
