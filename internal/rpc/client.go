package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Transport отправляет сериализованный конверт и возвращает разобранный ответ
type Transport interface {
	Send(ctx context.Context, url, method string, body []byte) (*Response, error)
}

// Client строит конверты запросов и передает их транспорту
type Client struct {
	transport Transport
	logger    *zap.Logger
}

// NewClient создает новый RPC клиент
func NewClient(transport Transport, logger *zap.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    logger,
	}
}

// Call отправляет запрос и возвращает конверт ответа без интерпретации result.
// Любой сбой сериализации или транспорта возвращается как NO_RESPONSE.
func (c *Client) Call(ctx context.Context, url, method string, p Params) (*Response, error) {
	body, err := json.Marshal(NewRequest(p))
	if err != nil {
		return nil, NewError(KindNoResponse, fmt.Errorf("ошибка сериализации запроса: %w", err))
	}

	c.logger.Debug("отправляем RPC запрос",
		zap.String("cmd", p.Cmd),
		zap.String("syncid", p.SyncID),
		zap.String("sid", p.SID))

	resp, err := c.transport.Send(ctx, url, method, body)
	if err != nil {
		return nil, NewError(KindNoResponse, err)
	}
	if resp == nil {
		return nil, NewError(KindNoResponse, fmt.Errorf("транспорт вернул пустой ответ"))
	}

	return resp, nil
}
