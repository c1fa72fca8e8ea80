package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyMessage indicates a chat message with no text
	ErrEmptyMessage = errors.New("empty message")
	// ErrEmptyResponse indicates a non-error response with no text
	ErrEmptyResponse = errors.New("response text must not be empty")
	// ErrNotConnected indicates the client has no live connection
	ErrNotConnected = errors.New("client not connected")
)
