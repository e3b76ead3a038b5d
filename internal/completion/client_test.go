package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushal1111/LLMproject/internal/models"
)

func newUpstream(t *testing.T, status int, respond string, capture *completionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		w.Write([]byte(respond))
	}))
}

func TestComplete_ClampsMaxTokens(t *testing.T) {
	var got completionRequest
	srv := newUpstream(t, http.StatusOK, `{"id":"x"}`, &got)
	defer srv.Close()

	c := New(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "some/model", 100000)
	require.NoError(t, err)

	assert.Equal(t, MaxAllowedTokens, got.MaxTokens)
}

func TestComplete_Defaults(t *testing.T) {
	var got completionRequest
	srv := newUpstream(t, http.StatusOK, `{"id":"x"}`, &got)
	defer srv.Close()

	c := New(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "", 0)
	require.NoError(t, err)

	assert.Equal(t, "deepseek/deepseek-r1:free", got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestComplete_ReturnsRawBody(t *testing.T) {
	body := `{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"hello"}}]}`
	srv := newUpstream(t, http.StatusOK, body, nil)
	defer srv.Close()

	c := New(srv.URL, "test-key")
	raw, err := c.Complete(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "m", 100)
	require.NoError(t, err)

	assert.JSONEq(t, body, string(raw))
}

func TestComplete_UpstreamFailure(t *testing.T) {
	srv := newUpstream(t, http.StatusBadGateway, `{"error":"upstream down"}`, nil)
	defer srv.Close()

	c := New(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "m", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
