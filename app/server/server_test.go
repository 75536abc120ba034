package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"infrachat/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Service {
	return newService(&config.Config{}, nil)
}

func TestHealth(t *testing.T) {
	s := newTestServer()

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestChatCompletionInvalidBody(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/completion", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatCompletionEmptyMessages(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/completion",
		strings.NewReader(`{"messages": []}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Messages cannot be empty", body["detail"])
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limit text",
			err:  fmt.Errorf("Rate limit is exceeded, try again later"),
			want: busyMessage,
		},
		{
			name: "capacity text",
			err:  fmt.Errorf("model is over capacity"),
			want: busyMessage,
		},
		{
			name: "quota text",
			err:  fmt.Errorf("monthly quota exhausted"),
			want: busyMessage,
		},
		{
			name: "ordinary error is echoed",
			err:  fmt.Errorf("database unavailable"),
			want: "An error occurred: database unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := errorResponse(tc.err)

			require.Len(t, resp.Choices, 1)
			assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
			assert.Equal(t, tc.want, resp.Choices[0].Message.Content)
		})
	}
}
