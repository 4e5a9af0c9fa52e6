package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Default models used when the configuration leaves them empty.
const (
	DefaultTextModel  = openai.GPT4o
	DefaultImageModel = openai.CreateImageModelDallE3
)

// OpenAIClient is the subset of *openai.Client the provider uses. Tests
// substitute a fake.
type OpenAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(context.Context, openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAIConfig configures an OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

// OpenAI implements Provider against an OpenAI-compatible API.
type OpenAI struct {
	client     OpenAIClient
	hasKey     bool
	textModel  string
	imageModel string
}

// NewOpenAI creates a provider from cfg. A missing API key is not an error
// here; every call fails with ErrMissingCredential instead, so a run still
// completes with per-node errors.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(clientCfg), cfg)
}

// NewOpenAIWithClient creates a provider around an existing client.
func NewOpenAIWithClient(client OpenAIClient, cfg OpenAIConfig) *OpenAI {
	p := &OpenAI{
		client:     client,
		hasKey:     cfg.APIKey != "",
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}
	if p.textModel == "" {
		p.textModel = DefaultTextModel
	}
	if p.imageModel == "" {
		p.imageModel = DefaultImageModel
	}
	return p
}

// GenerateText sends prompt as the user message under systemInstruction.
func (p *OpenAI) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if !p.hasKey {
		return "", &Error{Op: opText, Cause: ErrMissingCredential}
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.textModel,
		Messages: messages,
	})
	if err != nil {
		return "", &Error{Op: opText, Cause: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{Op: opText, Cause: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage requests a single base64 image. The aspect ratio is stated
// at the top of the prompt and also mapped onto the closest supported size.
func (p *OpenAI) GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	if !p.hasKey {
		return "", &Error{Op: opImage, Cause: ErrMissingCredential}
	}

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         fmt.Sprintf("Aspect Ratio: %s\n\n%s", aspectRatio, prompt),
		Model:          p.imageModel,
		N:              1,
		Size:           ImageSize(aspectRatio),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", &Error{Op: opImage, Cause: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", &Error{Op: opImage, Cause: ErrNoImage}
	}
	return resp.Data[0].B64JSON, nil
}

// ImageSize maps an aspect ratio such as "16:9" onto the landscape, portrait
// or square size the image endpoint accepts. Unparseable ratios are square.
func ImageSize(aspectRatio string) string {
	w, h, ok := parseRatio(aspectRatio)
	switch {
	case !ok || w == h:
		return openai.CreateImageSize1024x1024
	case w > h:
		return openai.CreateImageSize1792x1024
	default:
		return openai.CreateImageSize1024x1792
	}
}

func parseRatio(r string) (int, int, bool) {
	a, b, found := strings.Cut(r, ":")
	if !found {
		return 0, 0, false
	}
	w, err := strconv.Atoi(a)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(b)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
