package audio

import (
	"sync"

	"go.uber.org/zap"
)

// AsyncSink передает фрагменты обработчику в отдельной горутине.
// Handle не блокируется, порядок фрагментов сохраняется.
type AsyncSink struct {
	handler func(chunk []byte)
	logger  *zap.Logger

	mu     sync.Mutex
	queue  [][]byte
	closed bool

	notify chan struct{}
	done   chan struct{}
}

// NewAsyncSink создает sink и запускает горутину доставки
func NewAsyncSink(handler func(chunk []byte), logger *zap.Logger) *AsyncSink {
	s := &AsyncSink{
		handler: handler,
		logger:  logger,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.deliver()
	return s
}

// Handle ставит копию фрагмента в очередь
func (s *AsyncSink) Handle(chunk []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("фрагмент аудио получен после закрытия", zap.Int("size", len(chunk)))
		return
	}
	s.queue = append(s.queue, append([]byte(nil), chunk...))
	s.mu.Unlock()

	s.wake()
}

// Close доставляет оставшиеся фрагменты и останавливает горутину
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wake()
	<-s.done
}

func (s *AsyncSink) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *AsyncSink) deliver() {
	defer close(s.done)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		closed := s.closed
		s.mu.Unlock()

		for _, chunk := range batch {
			s.handler(chunk)
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-s.notify
		}
	}
}
