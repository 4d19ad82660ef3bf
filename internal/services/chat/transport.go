package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reviewly/reviewly/internal/services/prefs"
)

// Request is what a transport needs to open one response stream
type Request struct {
	Prompt    string
	ProductID string
}

// Transport opens the response stream of one prompt. Failures are returned as
// *StreamError so the session can render them.
type Transport interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Preferences is the slice of the preference service transports read from
type Preferences interface {
	Token(ctx context.Context) (string, bool)
	Model(ctx context.Context) prefs.ModelPreference
}

type queryBody struct {
	Prompt    string `json:"prompt"`
	ProductID string `json:"product_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

// HTTPTransport streams answers from the backend chat endpoint
type HTTPTransport struct {
	client   *http.Client
	endpoint string
	prefs    Preferences
}

// NewHTTPTransport resolves endpoint against baseURL unless it is already absolute
func NewHTTPTransport(baseURL, endpoint string, prefs Preferences) *HTTPTransport {
	return NewHTTPTransportWithClient(baseURL, endpoint, prefs, &http.Client{})
}

func NewHTTPTransportWithClient(baseURL, endpoint string, prefs Preferences, client *http.Client) *HTTPTransport {
	if !strings.Contains(endpoint, "://") {
		endpoint = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	}
	return &HTTPTransport{client: client, endpoint: endpoint, prefs: prefs}
}

func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

func (t *HTTPTransport) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	body := queryBody{Prompt: req.Prompt, ProductID: req.ProductID}
	if t.prefs != nil {
		body.Model = t.prefs.Model(ctx).Model
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, networkFailure(fmt.Errorf("failed to create chat request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if t.prefs != nil {
		if token, ok := t.prefs.Token(ctx); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log.Debug().Str("endpoint", t.endpoint).Str("model", body.Model).Msg("Opening chat stream")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, networkFailure(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Warn().Int("status", resp.StatusCode).Str("endpoint", t.endpoint).Msg("Chat stream rejected")
		return nil, unavailable(resp.StatusCode, statusText(resp))
	}
	if resp.Body == nil {
		return nil, unavailable(resp.StatusCode, statusText(resp))
	}

	return resp.Body, nil
}

// statusText prefers the reason phrase the server sent
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
