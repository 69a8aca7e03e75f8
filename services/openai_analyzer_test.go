package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dutchthrift_server/structs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T, handler http.HandlerFunc) *OpenAIAnalyzer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIAnalyzer(&structs.AnalysisConfig{
		ApiKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	})
}

// completion wraps content in a chat completion response body
func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1735732800,
		"model":   "gpt-4o",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

type sentChatRequest struct {
	Model          string `json:"model"`
	MaxTokens      int    `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func TestOpenAIAnalyzer_Analyze(t *testing.T) {
	var got sentChatRequest
	analyzer := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(`{"productType":"chair","brand":"Gispen","features":["tubular steel"],"confidence":1.7}`)))
	})

	result, err := analyzer.Analyze(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "chair", result.ProductType)
	assert.Equal(t, "Gispen", result.Brand)
	assert.Equal(t, []string{"tubular steel"}, result.Features)
	assert.Equal(t, 1.0, result.Confidence)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)

	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(got.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", parts[1].ImageURL.URL)
}

func TestOpenAIAnalyzer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests"}}`, "returned 429: rate limited"},
		{"upstream html", http.StatusBadGateway, `<html>`, "returned 502"},
		{"no choices", http.StatusOK, `{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`, "no choices"},
		{"bad content", http.StatusOK, completion("not json"), "not valid JSON"},
		{"garbled body", http.StatusOK, `<html>`, "analysis request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			analyzer := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := analyzer.Analyze(context.Background(), "data:image/png;base64,aGVsbG8=")
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, int32(1), calls.Load(), "retries are off unless configured")
		})
	}
}

func TestOpenAIAnalyzer_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		_, _ = w.Write([]byte(completion(`{"productType":"lamp","confidence":0.4}`)))
	}))
	t.Cleanup(srv.Close)

	analyzer := NewOpenAIAnalyzer(&structs.AnalysisConfig{
		ApiKey:     "sk-test",
		BaseURL:    srv.URL + "/",
		Model:      "gpt-4o",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	result, err := analyzer.Analyze(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "lamp", result.ProductType)
	assert.Equal(t, int32(2), calls.Load())
}

func TestImageDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,abc", imageDataURL("data:image/png;base64,abc"))
	assert.Equal(t, "data:image/jpeg;base64,abc", imageDataURL("abc"))
}
