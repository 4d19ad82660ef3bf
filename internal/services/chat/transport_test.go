package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/internal/services/prefs"
)

func TestHTTPTransportRequest(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(ctx context.Context, svc *prefs.Service)
		productID string
		wantAuth  string
		wantBody  queryBody
	}{
		{
			name:     "anonymous with default model",
			setup:    func(ctx context.Context, svc *prefs.Service) {},
			wantBody: queryBody{Prompt: "hi", Model: config.DefaultModel},
		},
		{
			name: "token and stored model",
			setup: func(ctx context.Context, svc *prefs.Service) {
				require.NoError(t, svc.SetToken(ctx, "jwt-token"))
				require.NoError(t, svc.SetModel(ctx, prefs.ModelPreference{Provider: "anthropic", Model: "anthropic/claude-3-haiku"}))
			},
			productID: "B0001",
			wantAuth:  "Bearer jwt-token",
			wantBody:  queryBody{Prompt: "hi", ProductID: "B0001", Model: "anthropic/claude-3-haiku"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := prefs.NewServiceWithStore(prefs.NewMemoryStore())
			tt.setup(ctx, svc)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/query", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, tt.wantAuth, r.Header.Get("Authorization"))

				var body queryBody
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.wantBody, body)

				w.Write([]byte("ok"))
			}))
			defer server.Close()

			transport := NewHTTPTransportWithClient(server.URL+"/", "chat/query", svc, server.Client())
			body, err := transport.Open(ctx, Request{Prompt: "hi", ProductID: tt.productID})
			require.NoError(t, err)
			defer body.Close()

			data, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, "ok", string(data))
		})
	}
}

func TestHTTPTransportEndpoint(t *testing.T) {
	assert.Equal(t, "http://api/chat/query", NewHTTPTransport("http://api/", "/chat/query", nil).Endpoint())
	assert.Equal(t, "http://other/chat/product/3", NewHTTPTransport("http://api", "http://other/chat/product/3", nil).Endpoint())
}

func TestHTTPTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	transport := NewHTTPTransportWithClient(server.URL, "/chat/query", nil, server.Client())

	_, err := transport.Open(context.Background(), Request{Prompt: "hi"})
	var streamErr *StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, StreamUnavailable, streamErr.Kind)
	assert.Equal(t, "Error en la respuesta: 401 Unauthorized", streamErr.Message)

	server.Close()

	_, err = transport.Open(context.Background(), Request{Prompt: "hi"})
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, NetworkFailure, streamErr.Kind)
	assert.NotEmpty(t, streamErr.Message)
}

func TestHTTPTransportStreamsIntoSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, chunk := range []string{`{"type":"status","message":"Searching…"}`, "Found it."} {
			w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer server.Close()

	session := NewSession(NewHTTPTransportWithClient(server.URL, "/chat/query", nil, server.Client()))
	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.False(t, messages[1].IsStatus)
	assert.Contains(t, messages[1].Text, "Found it.")
	assert.Equal(t, StateDone, session.State())
}

func TestHTTPTransportLargeAdditionalData(t *testing.T) {
	products := make([]map[string]interface{}, 0, 5)
	for i := 1; i <= 5; i++ {
		images := make([]string, 0, 6)
		for j := 0; j < 6; j++ {
			images = append(images, fmt.Sprintf("https://images.example.com/I/%d-%d-%s.jpg", i, j, strings.Repeat("x", 100)))
		}
		products = append(products, map[string]interface{}{
			"product_id":     i,
			"title":          fmt.Sprintf("Product %d", i),
			"main_category":  "Electronics",
			"average_rating": 4.5,
			"rating_number":  120,
			"price":          99.9,
			"store":          "Acme",
			"images":         images,
			"resume_review":  strings.Repeat("Customers like the battery. ", 8),
		})
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type": "additional_data",
		"data": map[string]interface{}{"products": products},
	})
	require.NoError(t, err)
	require.Greater(t, len(payload), 5000)

	seen := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(payload)
		flusher.Flush()

		select {
		case <-seen:
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte("Here are five options."))
	}))
	defer server.Close()

	session := NewSession(NewHTTPTransportWithClient(server.URL, "/chat/query", nil, server.Client()))
	var events []AdditionalData
	session.OnAdditionalData(func(data AdditionalData) {
		events = append(events, data)
		close(seen)
	})

	require.NoError(t, session.Submit(context.Background(), "show me phones", ""))

	require.Len(t, events, 1)
	assert.Len(t, events[0].Products, 5)

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Len(t, messages[1].Products, 5)
	assert.Equal(t, "Product 5", messages[1].Products[4].Title)
	assert.Len(t, messages[1].Products[0].Images, 6)
	assert.NotContains(t, messages[1].Text, "additional_data")
	assert.Contains(t, messages[1].Text, "Here are five options.")
}

func TestOpenRouterTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, config.DefaultModel, req.Model)
		assert.True(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hi", " there", "!"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("or-key")
	cfg.BaseURL = server.URL + "/v1"
	cfg.HTTPClient = server.Client()

	svc := prefs.NewServiceWithStore(prefs.NewMemoryStore())
	session := NewSession(NewOpenRouterTransport(openai.NewClientWithConfig(cfg), svc))

	require.NoError(t, session.Submit(context.Background(), "hello", "B0001"))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "Hi there!", messages[1].Text)
	assert.Equal(t, StateDone, session.State())
}

func TestOpenRouterTransportRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("or-key")
	cfg.BaseURL = server.URL
	cfg.HTTPClient = server.Client()

	session := NewSession(NewOpenRouterTransport(openai.NewClientWithConfig(cfg), nil))
	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	assert.Equal(t, "Error: Error en la respuesta: 429 Too Many Requests", session.Messages()[1].Text)
}
