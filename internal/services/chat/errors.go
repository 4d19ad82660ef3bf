package chat

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrBusy        = errors.New("a response is still streaming")
)

type ErrorKind int

const (
	// StreamUnavailable means the backend answered without a usable stream
	StreamUnavailable ErrorKind = iota
	// DecodeFailure is reserved; undecodable bytes are passed through as text
	DecodeFailure
	NetworkFailure
)

func (k ErrorKind) String() string {
	switch k {
	case StreamUnavailable:
		return "stream_unavailable"
	case DecodeFailure:
		return "decode_failure"
	case NetworkFailure:
		return "network_failure"
	}
	return "unknown"
}

// StreamError is what transports return when a response cannot be consumed.
// Message is the text shown to the user after the "Error: " prefix.
type StreamError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *StreamError) Error() string {
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func unavailable(code int, statusText string) *StreamError {
	return &StreamError{
		Kind:    StreamUnavailable,
		Message: fmt.Sprintf("Error en la respuesta: %d %s", code, statusText),
	}
}

func networkFailure(err error) *StreamError {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr
	}
	return &StreamError{Kind: NetworkFailure, Message: err.Error(), Err: err}
}
