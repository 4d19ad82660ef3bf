package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const productContextPrompt = "The user is browsing product %s. Answer with that product in mind."

// OpenRouterTransport talks to an OpenAI-compatible provider directly, bypassing
// the backend. Every streamed delta becomes one plain-text chunk.
type OpenRouterTransport struct {
	client *openai.Client
	prefs  Preferences
}

func NewOpenRouterTransport(client *openai.Client, prefs Preferences) *OpenRouterTransport {
	return &OpenRouterTransport{client: client, prefs: prefs}
}

func (t *OpenRouterTransport) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.ProductID != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf(productContextPrompt, req.ProductID),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	model := ""
	if t.prefs != nil {
		model = t.prefs.Model(ctx).Model
	}

	stream, err := t.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, providerError(err)
	}

	log.Debug().Str("model", model).Msg("Opened direct provider stream")

	pr, pw := io.Pipe()
	go func() {
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				pw.Close()
				return
			}
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			for _, choice := range resp.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if _, err := pw.Write([]byte(choice.Delta.Content)); err != nil {
					return
				}
			}
		}
	}()

	return pr, nil
}

func providerError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StreamError{
			Kind:    StreamUnavailable,
			Message: unavailable(apiErr.HTTPStatusCode, http.StatusText(apiErr.HTTPStatusCode)).Message,
			Err:     err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StreamError{
			Kind:    StreamUnavailable,
			Message: unavailable(reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode)).Message,
			Err:     err,
		}
	}
	return networkFailure(err)
}
