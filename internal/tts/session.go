package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aiplus-tts/internal/rpc"
)

const (
	initialSyncCounter    int64 = -1
	defaultCleanupTimeout       = 5 * time.Second
)

// TTSOption содержит параметры подключения и авторизации
type TTSOption struct {
	AuthID       string
	AppID        string
	ExtendParams string
	// Params - дополнительные параметры запроса ssb (голос, формат и т.п.)
	Params map[string]string
}

// StartOptions содержит параметры одного запуска сессии
type StartOptions struct {
	URL       string
	APIMethod string
	Text      string
	TTSOption TTSOption
}

// AudioHandler получает декодированные фрагменты аудио. Не должен блокировать.
type AudioHandler func(chunk []byte)

// ErrorHandler получает каждую ошибку сессии ровно один раз.
// Ошибки запросов, отброшенных после End, и ошибки sse при очистке не передаются.
type ErrorHandler func(err *rpc.Error)

// Observer получает события сессии (метрики, тесты)
type Observer interface {
	RequestSent(cmd string)
	ResponseReceived(cmd string, elapsed time.Duration, err error)
	StatusChanged(from, to Status)
	AudioReceived(size int)
	SessionFinished(err error)
}

// Config содержит обработчики и настройки сессии
type Config struct {
	OnAudio        AudioHandler
	OnError        ErrorHandler
	Observer       Observer
	CleanupTimeout time.Duration
}

// run - результат одного запуска, который ждет End
type run struct {
	done chan struct{}
	err  error
}

// Session ведет одну TTS сессию: ssb -> txtw -> grs* -> sse.
// В каждый момент времени ожидается не более одного ответа.
type Session struct {
	client         *rpc.Client
	logger         *zap.Logger
	onAudio        AudioHandler
	onError        ErrorHandler
	observer       Observer
	cleanupTimeout time.Duration

	mu          sync.Mutex
	status      Status
	sessionID   string
	syncCounter int64
	opts        StartOptions
	creds       rpc.Credentials
	current     *run
}

// NewSession создает новую сессию в состоянии idle
func NewSession(client *rpc.Client, cfg Config, logger *zap.Logger) *Session {
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = defaultCleanupTimeout
	}

	return &Session{
		client:         client,
		logger:         logger,
		onAudio:        cfg.OnAudio,
		onError:        cfg.OnError,
		observer:       cfg.Observer,
		cleanupTimeout: cfg.CleanupTimeout,
		status:         StatusIdle,
		syncCounter:    initialSyncCounter,
	}
}

// Status возвращает текущее состояние сессии
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SessionID возвращает идентификатор, выданный сервером
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Start запускает сессию и блокируется, пока она не вернется в idle.
// Если сессия уже запущена, ничего не делает.
func (s *Session) Start(ctx context.Context, opts StartOptions) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		return nil
	}
	if err := s.checkOptions(opts); err != nil {
		s.mu.Unlock()
		s.reportError(err)
		return err
	}

	s.opts = opts
	s.creds = rpc.Credentials{
		AuthID:       opts.TTSOption.AuthID,
		AppID:        opts.TTSOption.AppID,
		ExtendParams: opts.TTSOption.ExtendParams,
	}
	s.sessionID = ""
	s.syncCounter = initialSyncCounter
	current := &run{done: make(chan struct{})}
	s.current = current
	s.setStatusLocked(StatusSessionBegin)
	s.mu.Unlock()

	logger := s.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("начало TTS сессии",
		zap.String("url", opts.URL),
		zap.Int("text_length", len(opts.Text)))

	err := s.loop(ctx, logger)

	s.mu.Lock()
	s.setStatusLocked(StatusIdle)
	current.err = err
	close(current.done)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.SessionFinished(err)
	}
	if err != nil {
		logger.Error("TTS сессия завершилась с ошибкой", zap.Error(err))
		return err
	}

	logger.Info("TTS сессия завершена")
	return nil
}

// End принудительно переводит сессию в sessionEnd и ждет ее закрытия.
// Если сессия уже закрывается или не запущена, ничего не делает.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	if s.status.terminating() {
		s.mu.Unlock()
		return nil
	}
	s.setStatusLocked(StatusSessionEnd)
	current := s.current
	s.mu.Unlock()

	s.logger.Info("запрошено завершение TTS сессии")

	select {
	case <-current.done:
		return current.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop - цикл запрос -> ответ -> переход
func (s *Session) loop(ctx context.Context, logger *zap.Logger) error {
	for {
		params, issuedFor := s.nextRequest()

		reqCtx, cancel := ctx, context.CancelFunc(func() {})
		if issuedFor == StatusSessionEnd {
			reqCtx, cancel = s.cleanupContext(ctx)
		}
		resp, err := s.exchange(reqCtx, params)
		cancel()

		if err != nil {
			if s.Status() != issuedFor {
				// запрос уже не актуален, End ждет отправки sse
				logger.Debug("ошибка отброшенного запроса",
					zap.String("cmd", params.Cmd),
					zap.Error(err))
				continue
			}
			return s.fail(ctx, issuedFor, err, logger)
		}

		s.mu.Lock()
		if s.status != issuedFor {
			// статус сменил End, ответ больше не актуален
			s.adoptSessionIDLocked(issuedFor, resp)
			s.mu.Unlock()
			logger.Debug("ответ отброшен после End",
				zap.String("cmd", params.Cmd),
				zap.String("syncid", params.SyncID))
			continue
		}

		step, err := Transition(issuedFor, resp)
		if err != nil {
			s.mu.Unlock()
			return s.fail(ctx, issuedFor, err, logger)
		}
		if step.SessionID != "" && s.sessionID == "" {
			s.sessionID = step.SessionID
		}
		s.setStatusLocked(step.Next)
		s.mu.Unlock()

		if len(step.Audio) > 0 {
			s.deliverAudio(step.Audio)
		}
		if step.Done {
			return nil
		}
	}
}

// nextRequest увеличивает счетчик и строит параметры для текущего состояния
func (s *Session) nextRequest() (rpc.Params, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncCounter++
	syncID := rpc.FormatSyncID(s.syncCounter)

	var params rpc.Params
	switch s.status {
	case StatusSessionBegin:
		params = rpc.SessionBeginParams(s.creds, s.opts.TTSOption.Params, syncID)
	case StatusTextWrite:
		text := base64.StdEncoding.EncodeToString([]byte(s.opts.Text))
		params = rpc.TextWriteParams(s.creds, s.sessionID, syncID, text)
	case StatusGetResult:
		params = rpc.GetResultParams(s.creds, s.sessionID, syncID)
	default:
		params = rpc.SessionEndParams(s.creds, s.sessionID, syncID)
	}

	return params, s.status
}

// exchange отправляет один запрос и ждет ответ
func (s *Session) exchange(ctx context.Context, params rpc.Params) (*rpc.Response, error) {
	if s.observer != nil {
		s.observer.RequestSent(params.Cmd)
	}

	startTime := time.Now()
	resp, err := s.client.Call(ctx, s.opts.URL, s.opts.APIMethod, params)

	if s.observer != nil {
		s.observer.ResponseReceived(params.Cmd, time.Since(startTime), err)
	}
	return resp, err
}

// fail сообщает об ошибке и пытается закрыть сессию на сервере.
// Решение о sse принимается по issuedFor: End мог уже сменить статус,
// но sse за него никто не отправит. Всегда возвращает исходную ошибку.
func (s *Session) fail(ctx context.Context, issuedFor Status, cause error, logger *zap.Logger) error {
	rpcErr := asRPCError(cause)
	s.reportError(rpcErr)

	if issuedFor.terminating() {
		return rpcErr
	}

	s.mu.Lock()
	s.setStatusLocked(StatusSessionEnd)
	s.mu.Unlock()

	logger.Warn("ошибка TTS сессии, закрываем сессию на сервере", zap.Error(rpcErr))

	cleanupCtx, cancel := s.cleanupContext(ctx)
	defer cancel()

	params, _ := s.nextRequest()
	resp, err := s.exchange(cleanupCtx, params)
	if err == nil {
		_, err = Transition(StatusSessionEnd, resp)
	}
	if err != nil {
		logger.Warn("не удалось закрыть сессию на сервере",
			zap.String("syncid", params.SyncID),
			zap.Error(err))
	}

	return rpcErr
}

// cleanupContext не зависит от отмены ctx, чтобы sse дошел до сервера
func (s *Session) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
}

// adoptSessionIDLocked запоминает sid из отброшенного ответа на ssb, чтобы sse мог его указать
func (s *Session) adoptSessionIDLocked(issuedFor Status, resp *rpc.Response) {
	if issuedFor != StatusSessionBegin || s.sessionID != "" {
		return
	}
	if result, err := Validate(resp); err == nil {
		s.sessionID = result.SID
	}
}

func (s *Session) setStatusLocked(next Status) {
	prev := s.status
	s.status = next
	if prev != next && s.observer != nil {
		s.observer.StatusChanged(prev, next)
	}
}

func (s *Session) deliverAudio(chunk []byte) {
	if s.observer != nil {
		s.observer.AudioReceived(len(chunk))
	}
	if s.onAudio != nil {
		s.onAudio(chunk)
	}
}

func (s *Session) reportError(err *rpc.Error) {
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Session) checkOptions(opts StartOptions) *rpc.Error {
	if s.client == nil {
		return rpc.NewError(rpc.KindNotSupported, fmt.Errorf("RPC клиент не задан"))
	}
	if opts.URL == "" {
		return rpc.NewError(rpc.KindNotSupported, fmt.Errorf("не указан URL сервиса"))
	}
	return nil
}

func asRPCError(err error) *rpc.Error {
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return rpc.NewError(rpc.KindNoResponse, err)
}
