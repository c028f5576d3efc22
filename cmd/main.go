package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aiplus-tts/internal/audio"
	"aiplus-tts/internal/config"
	"aiplus-tts/internal/metrics"
	"aiplus-tts/internal/rpc"
	"aiplus-tts/internal/tts"
)

const endRetryInterval = 10 * time.Millisecond

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск TTS драйвера",
		zap.String("url", cfg.TTS.URL),
		zap.String("env", cfg.App.Env))

	text, err := readText(cfg.TTS.Text, os.Stdin)
	if err != nil {
		logger.Fatal("ошибка чтения текста", zap.Error(err))
	}

	// Обработка сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, text, logger); err != nil {
		logger.Fatal("синтез завершился с ошибкой", zap.Error(err))
	}

	logger.Info("приложение завершено")
}

// run запускает HTTP сервер метрик и одну TTS сессию
func run(ctx context.Context, cfg *config.Config, text string, logger *zap.Logger) error {
	output, err := os.Create(cfg.TTS.OutputPath)
	if err != nil {
		return fmt.Errorf("ошибка создания файла для аудио: %w", err)
	}
	defer output.Close()

	sink := audio.NewAsyncSink(func(chunk []byte) {
		if _, err := output.Write(chunk); err != nil {
			logger.Error("ошибка записи аудио", zap.Error(err))
		}
	}, logger)

	var observer tts.Observer
	var metricsSystem *metrics.Metrics
	if cfg.App.MetricsEnabled {
		metricsSystem = metrics.New(logger)
		observer = metricsSystem
	}

	transport := rpc.NewHTTPTransport(cfg.TTS.RequestTimeout, logger)
	client := rpc.NewClient(transport, logger)
	session := tts.NewSession(client, tts.Config{
		OnAudio: sink.Handle,
		OnError: func(err *rpc.Error) {
			logger.Error("ошибка TTS протокола",
				zap.String("kind", string(err.Kind)),
				zap.Error(err))
		},
		Observer:       observer,
		CleanupTimeout: cfg.TTS.CleanupTimeout,
	}, logger)

	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()

	g, gctx := errgroup.WithContext(serverCtx)

	if metricsSystem != nil {
		handler := metrics.NewHandler(metricsSystem, logger)
		g.Go(func() error {
			return startMetricsServer(gctx, cfg.App.Port, handler, logger)
		})
	}

	g.Go(func() error {
		defer stopServer()
		defer sink.Close()

		sessionCtx, cancel := context.WithTimeout(context.Background(), cfg.TTS.SessionTimeout)
		defer cancel()

		// По сигналу закрываем сессию штатно, а не обрываем запрос
		go endOnSignal(ctx, sessionCtx, session, cfg.TTS.CleanupTimeout, logger)

		opts := tts.StartOptions{
			URL:       cfg.TTS.URL,
			APIMethod: cfg.TTS.APIMethod,
			Text:      text,
			TTSOption: tts.TTSOption{
				AuthID:       cfg.TTS.AuthID,
				AppID:        cfg.TTS.AppID,
				ExtendParams: cfg.TTS.ExtendParams,
				Params:       cfg.TTS.SessionParams,
			},
		}
		if err := session.Start(sessionCtx, opts); err != nil {
			return fmt.Errorf("ошибка TTS сессии: %w", err)
		}

		logger.Info("аудио записано", zap.String("path", cfg.TTS.OutputPath))
		return nil
	})

	return g.Wait()
}

// sessionEnder - часть tts.Session, нужная для остановки по сигналу
type sessionEnder interface {
	Status() tts.Status
	End(ctx context.Context) error
}

// endOnSignal ждет сигнала и вызывает End. Если Start еще не вывел сессию
// из idle, End ничего бы не сделал, поэтому ждем начала сессии.
// Выходит, когда sessionCtx завершен.
func endOnSignal(signalCtx, sessionCtx context.Context, session sessionEnder, timeout time.Duration, logger *zap.Logger) {
	select {
	case <-signalCtx.Done():
	case <-sessionCtx.Done():
		return
	}

	logger.Info("получен сигнал завершения, закрываем TTS сессию")

	ticker := time.NewTicker(endRetryInterval)
	defer ticker.Stop()

	for session.Status() == tts.StatusIdle {
		select {
		case <-sessionCtx.Done():
			return
		case <-ticker.C:
		}
	}

	endCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := session.End(endCtx); err != nil {
		logger.Warn("ошибка завершения TTS сессии", zap.Error(err))
	}
}

// initLogger инициализирует логгер
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	if cfg.App.IsProduction() {
		// В продакшене используем JSON формат
		config = zap.NewProductionConfig()
	}
	config.Level = cfg.App.GetLogLevel()
	// stdout может использоваться для вывода, поэтому логи пишем в stderr
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// readText возвращает текст из конфигурации или, если он пуст, из reader
func readText(configured string, r io.Reader) (string, error) {
	if strings.TrimSpace(configured) != "" {
		return configured, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("текст для синтеза не задан (TTS_TEXT или stdin)")
	}
	return text, nil
}

// startMetricsServer запускает HTTP сервер для метрик
func startMetricsServer(ctx context.Context, port int, handler *metrics.Handler, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler.MetricsHandler())
	mux.HandleFunc("/health", handler.HealthHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logger.Info("HTTP сервер метрик запущен", zap.String("address", server.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP сервера метрик: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера метрик", zap.Error(err))
	}

	logger.Info("HTTP сервер метрик остановлен")
	return nil
}
