// Package llm wraps the hosted language model APIs behind one small interface.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
)

// ErrEmptyReply is returned when a provider answers without any text.
var ErrEmptyReply = errors.New("llm: empty reply")

// Image is an inline picture sent along a prompt.
type Image struct {
	Data      []byte
	MediaType string
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Base64()
}

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Image       *Image
	Temperature float32
	MaxTokens   int
}

// Completer produces the raw text reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Speaker synthesises speech audio.
type Speaker interface {
	Speech(ctx context.Context, text string) ([]byte, error)
}
