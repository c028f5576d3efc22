package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"aiplus-tts/internal/tts"
)

var _ tts.Observer = (*Metrics)(nil)

// Metrics содержит все метрики TTS драйвера
type Metrics struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// Счетчики
	rpcRequests       *prometheus.CounterVec
	sessions          *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	audioBytes        prometheus.Counter
	audioChunks       prometheus.Counter

	// Гистограммы
	rpcResponseTime *prometheus.HistogramVec
	audioChunkSize  prometheus.Histogram

	// Gauge метрики
	activeSessions prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// New создает метрики в глобальном реестре Prometheus
func New(logger *zap.Logger) *Metrics {
	return NewWithRegistry(logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry создает метрики в указанном реестре
func NewWithRegistry(logger *zap.Logger, registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		logger:   logger,
		gatherer: gatherer,

		// Счетчики RPC запросов
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_rpc_requests_total",
				Help: "Общее количество RPC запросов к TTS сервису",
			},
			[]string{"cmd", "status"}, // cmd: ssb, txtw, grs, sse; status: success, failed
		),

		// Счетчики сессий
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_sessions_total",
				Help: "Общее количество завершенных TTS сессий",
			},
			[]string{"status"}, // success, failed
		),

		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_status_transitions_total",
				Help: "Переходы между состояниями сессии",
			},
			[]string{"from", "to"},
		),

		audioBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tts_audio_bytes_total",
				Help: "Общий объем полученного аудио в байтах",
			},
		),

		audioChunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tts_audio_chunks_total",
				Help: "Общее количество полученных фрагментов аудио",
			},
		),

		// Гистограмма времени ответа TTS сервиса
		rpcResponseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tts_rpc_response_time_seconds",
				Help:    "Время ответа TTS сервиса в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"cmd"},
		),

		audioChunkSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tts_audio_chunk_size_bytes",
				Help:    "Размер фрагмента аудио в байтах",
				Buckets: prometheus.ExponentialBuckets(256, 2, 10),
			},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tts_active_sessions",
				Help: "Количество активных TTS сессий",
			},
		),
	}

	// Регистрируем все метрики
	registerer.MustRegister(
		m.rpcRequests,
		m.sessions,
		m.statusTransitions,
		m.audioBytes,
		m.audioChunks,
		m.rpcResponseTime,
		m.audioChunkSize,
		m.activeSessions,
	)

	return m
}

// IncrementCounter увеличивает счетчик
func (m *Metrics) IncrementCounter(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counter *prometheus.CounterVec

	switch name {
	case "tts_rpc_requests_total":
		counter = m.rpcRequests
	case "tts_sessions_total":
		counter = m.sessions
	case "tts_status_transitions_total":
		counter = m.statusTransitions
	default:
		m.logger.Error("неизвестная метрика", zap.String("name", name))
		return
	}

	counter.WithLabelValues(labels...).Inc()
}

// AddGauge изменяет значение gauge метрики на delta
func (m *Metrics) AddGauge(name string, delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "tts_active_sessions":
		m.activeSessions.Add(delta)
	default:
		m.logger.Error("неизвестная gauge метрика", zap.String("name", name))
		return
	}
}

// ObserveHistogram добавляет наблюдение в гистограмму
func (m *Metrics) ObserveHistogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "tts_rpc_response_time":
		m.rpcResponseTime.WithLabelValues(labels...).Observe(value)
	case "tts_audio_chunk_size":
		m.audioChunkSize.Observe(value)
	default:
		m.logger.Error("неизвестная гистограмма", zap.String("name", name))
		return
	}
}

// RequestSent ничего не записывает: запрос учитывается вместе с ответом
func (m *Metrics) RequestSent(cmd string) {
	m.logger.Debug("RPC запрос отправлен", zap.String("cmd", cmd))
}

// ResponseReceived записывает результат и время RPC запроса
func (m *Metrics) ResponseReceived(cmd string, elapsed time.Duration, err error) {
	m.IncrementCounter("tts_rpc_requests_total", cmd, outcome(err))
	m.ObserveHistogram("tts_rpc_response_time", elapsed.Seconds(), cmd)
}

// StatusChanged записывает переход состояния и число активных сессий
func (m *Metrics) StatusChanged(from, to tts.Status) {
	m.IncrementCounter("tts_status_transitions_total", from.String(), to.String())

	switch {
	case from == tts.StatusIdle:
		m.AddGauge("tts_active_sessions", 1)
	case to == tts.StatusIdle:
		m.AddGauge("tts_active_sessions", -1)
	}
}

// AudioReceived записывает полученный фрагмент аудио
func (m *Metrics) AudioReceived(size int) {
	m.mu.Lock()
	m.audioBytes.Add(float64(size))
	m.audioChunks.Inc()
	m.mu.Unlock()

	m.ObserveHistogram("tts_audio_chunk_size", float64(size))
}

// SessionFinished записывает итог сессии
func (m *Metrics) SessionFinished(err error) {
	m.IncrementCounter("tts_sessions_total", outcome(err))
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
