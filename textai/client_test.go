package textai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"counseling-records/apperr"
	"counseling-records/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := New(config.LanguageModelConfig{
		APIKey:   "test-key",
		Provider: config.ProviderOpenAI,
		BaseURL:  server.URL + "/",
		Timeout:  5 * time.Second,
	}, zap.NewNop())
	require.True(t, client.Enabled())
	return client, &calls
}

func TestImprove_Success(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultOpenAIModel, req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 500, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, systemInstruction, req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Contains(t, req.Messages[1].Content, `"distracted in class"`)
		assert.Contains(t, req.Messages[1].Content, "2-3 paragraphs")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  The student had trouble focusing.\n\nWe agreed on a plan.  "}}]}`))
	})

	got, err := client.Improve(context.Background(), "distracted in class")
	require.NoError(t, err)
	assert.Equal(t, "The student had trouble focusing.\n\nWe agreed on a plan.", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestImprove_BlankInputIsNoop(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for blank input")
	})

	for _, text := range []string{"", "   ", "\n\t"} {
		got, err := client.Improve(context.Background(), text)
		assert.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestImprove_DisabledWithoutKey(t *testing.T) {
	client := New(config.LanguageModelConfig{Provider: config.ProviderOpenAI}, zap.NewNop())
	assert.False(t, client.Enabled())

	got, err := client.Improve(context.Background(), "distracted in class")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestNew_UnknownProviderDisables(t *testing.T) {
	client := New(config.LanguageModelConfig{APIKey: "k", Provider: "llama"}, zap.NewNop())
	assert.False(t, client.Enabled())
}

func TestImprove_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"api error body": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
		},
		"rate limited, not retried": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("slow down"))
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		},
		"empty content": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client, calls := newTestClient(t, handler)

			got, err := client.Improve(context.Background(), "distracted in class")
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Equal(t, apperr.KindRemoteCall, apperr.KindOf(err))
			assert.EqualValues(t, 1, atomic.LoadInt32(calls), "single attempt")
		})
	}
}

func TestImprove_ContextCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Improve(ctx, "distracted in class")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_GeminiProvider(t *testing.T) {
	client := New(config.LanguageModelConfig{APIKey: "k", Provider: config.ProviderGemini}, zap.NewNop())
	require.True(t, client.Enabled())
	assert.Equal(t, "gemini", client.backend.name())
}
