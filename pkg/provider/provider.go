// Package provider defines the generation service contract the execution
// engine consumes, along with its implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for generation calls
var (
	// ErrMissingCredential is returned when no API key is configured.
	ErrMissingCredential = errors.New("API key is missing")
	// ErrEmptyResponse is returned when the service answered without content.
	ErrEmptyResponse = errors.New("no response generated")
	// ErrNoImage is returned when an image call returned no image payload.
	ErrNoImage = errors.New("no image data returned from the model")
)

// Provider is the external generation service. Both calls are single-shot
// and report failure through the returned error; the error message is what
// ends up on the failing node.
type Provider interface {
	// GenerateText runs prompt under systemInstruction and returns the text.
	GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error)
	// GenerateImage returns a base64-encoded raster for prompt.
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error)
}

// Error wraps a failed generation call with the operation that failed.
type Error struct {
	Op    string // "generate_text" or "generate_image"
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

const (
	opText  = "generate_text"
	opImage = "generate_image"
)

// Funcs adapts a pair of functions to Provider. A nil function fails with
// an error naming the missing capability.
type Funcs struct {
	Text  func(ctx context.Context, prompt, systemInstruction string) (string, error)
	Image func(ctx context.Context, prompt, aspectRatio string) (string, error)
}

// GenerateText calls f.Text
func (f Funcs) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if f.Text == nil {
		return "", &Error{Op: opText, Cause: errors.New("text generation not supported")}
	}
	return f.Text(ctx, prompt, systemInstruction)
}

// GenerateImage calls f.Image
func (f Funcs) GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	if f.Image == nil {
		return "", &Error{Op: opImage, Cause: errors.New("image generation not supported")}
	}
	return f.Image(ctx, prompt, aspectRatio)
}
