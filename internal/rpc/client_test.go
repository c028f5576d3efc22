package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTransport struct {
	url    string
	method string
	body   []byte
	resp   *Response
	err    error
}

func (s *stubTransport) Send(ctx context.Context, url, method string, body []byte) (*Response, error) {
	s.url = url
	s.method = method
	s.body = body
	return s.resp, s.err
}

func TestClientCall(t *testing.T) {
	transport := &stubTransport{resp: &Response{Result: &Result{Ret: 0, SID: "s1"}}}
	client := NewClient(transport, zap.NewNop())

	resp, err := client.Call(context.Background(), "http://tts/rpc", "put", GetResultParams(testCreds, "s1", "5"))
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Result.SID)

	assert.Equal(t, "http://tts/rpc", transport.url)
	assert.Equal(t, "put", transport.method)

	var sent Request
	require.NoError(t, json.Unmarshal(transport.body, &sent))
	assert.Equal(t, "grs", sent.Params.Cmd)
	assert.Equal(t, "5", sent.Params.SyncID)
}

func TestClientCall_TransportError(t *testing.T) {
	cause := errors.New("connection refused")
	client := NewClient(&stubTransport{err: cause}, zap.NewNop())

	_, err := client.Call(context.Background(), "http://tts/rpc", "", GetResultParams(testCreds, "s1", "0"))
	require.Error(t, err)

	assert.True(t, IsKind(err, KindNoResponse))
	assert.ErrorIs(t, err, cause)
}

func TestClientCall_NilResponse(t *testing.T) {
	client := NewClient(&stubTransport{}, zap.NewNop())

	_, err := client.Call(context.Background(), "http://tts/rpc", "", GetResultParams(testCreds, "s1", "0"))
	assert.True(t, IsKind(err, KindNoResponse))
}

func TestClientCall_ResultNotInterpreted(t *testing.T) {
	// ret != 0 проверяет сессия, а не кодек
	client := NewClient(&stubTransport{resp: &Response{Result: &Result{Ret: 7}}}, zap.NewNop())

	resp, err := client.Call(context.Background(), "http://tts/rpc", "", GetResultParams(testCreds, "s1", "0"))
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Result.Ret)
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(KindResponseError, cause)

	assert.Equal(t, "RESPONSE_ERROR: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindResponseError))
	assert.False(t, IsKind(err, KindNoResponse))
	assert.False(t, IsKind(cause, KindResponseError))

	assert.Equal(t, "NOT_SUPPORTED", NewError(KindNotSupported, nil).Error())
}
