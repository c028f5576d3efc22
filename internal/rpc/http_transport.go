package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMethod используется, если apiMethod не задан
const DefaultMethod = http.MethodPost

// HTTPTransport отправляет RPC конверты через HTTP
type HTTPTransport struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPTransport создает HTTP транспорт с заданным таймаутом на запрос
func NewHTTPTransport(timeout time.Duration, logger *zap.Logger) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send выполняет HTTP запрос и парсит тело ответа как конверт RPC
func (t *HTTPTransport) Send(ctx context.Context, url, method string, body []byte) (*Response, error) {
	if method == "" {
		method = DefaultMethod
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Error("ошибка TTS API",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(responseBody)))
		return nil, fmt.Errorf("ошибка TTS API (статус %d): %s", resp.StatusCode, string(responseBody))
	}

	var rpcResp Response
	if err := json.Unmarshal(responseBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	return &rpcResp, nil
}
