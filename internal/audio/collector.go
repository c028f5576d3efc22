package audio

import (
	"bytes"
	"sync"
)

// Collector собирает фрагменты аудио в один буфер в порядке поступления
type Collector struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	chunks int
}

// NewCollector создает пустой буфер
func NewCollector() *Collector {
	return &Collector{}
}

// Add добавляет фрагмент
func (c *Collector) Add(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Write(chunk)
	c.chunks++
}

// Bytes возвращает копию собранных данных
func (c *Collector) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return bytes.Clone(c.buf.Bytes())
}

// Chunks возвращает количество полученных фрагментов
func (c *Collector) Chunks() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.chunks
}
