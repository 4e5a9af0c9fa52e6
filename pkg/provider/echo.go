package provider

import (
	"context"
	"fmt"
	"strings"
)

// placeholderPNG is a 1x1 transparent PNG.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// Echo is an offline provider. Text calls return the input prefixed with the
// first line of the instruction; image calls return a placeholder PNG.
type Echo struct{}

// NewEcho creates an offline provider
func NewEcho() *Echo {
	return &Echo{}
}

// GenerateText returns a deterministic transformation of prompt.
func (e *Echo) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: opText, Cause: err}
	}
	tag, _, _ := strings.Cut(strings.TrimSpace(systemInstruction), "\n")
	if tag == "" {
		return prompt, nil
	}
	return fmt.Sprintf("[%s] %s", tag, prompt), nil
}

// GenerateImage returns a placeholder image.
func (e *Echo) GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: opImage, Cause: err}
	}
	return placeholderPNG, nil
}
