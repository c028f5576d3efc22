package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPTransport_Send(t *testing.T) {
	var gotMethod, gotContentType string
	var gotRequest Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRequest)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"ret":0,"sid":"abc"}}`))
	}))
	defer server.Close()

	client := NewClient(NewHTTPTransport(5*time.Second, zap.NewNop()), zap.NewNop())
	resp, err := client.Call(context.Background(), server.URL, "", SessionBeginParams(testCreds, nil, "0"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "ssb", gotRequest.Params.Cmd)
	assert.Equal(t, "deal_request", gotRequest.Method)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "abc", resp.Result.SID)
}

func TestHTTPTransport_MethodOverride(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"result":{"ret":0}}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(5*time.Second, zap.NewNop())
	_, err := transport.Send(context.Background(), server.URL, "put", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestHTTPTransport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "статус 500", status: http.StatusInternalServerError, body: `oops`},
		{name: "не JSON", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			transport := NewHTTPTransport(5*time.Second, zap.NewNop())
			_, err := transport.Send(context.Background(), server.URL, "", []byte(`{}`))
			assert.Error(t, err)
		})
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(NewHTTPTransport(time.Second, zap.NewNop()), zap.NewNop())
	_, err := client.Call(context.Background(), url, "", GetResultParams(testCreds, "s", "1"))
	assert.True(t, IsKind(err, KindNoResponse))
}
