package provider

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	chatReq  openai.ChatCompletionRequest
	imageReq openai.ImageRequest
	chatResp openai.ChatCompletionResponse
	imgResp  openai.ImageResponse
	err      error
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.chatReq = req
	return f.chatResp, f.err
}

func (f *fakeClient) CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	f.imageReq = req
	return f.imgResp, f.err
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

func TestOpenAI_GenerateText(t *testing.T) {
	client := &fakeClient{chatResp: chatResponse("polished")}
	p := NewOpenAIWithClient(client, OpenAIConfig{APIKey: "sk-test", TextModel: "gpt-test"})

	out, err := p.GenerateText(context.Background(), "draft", "polish this")
	require.NoError(t, err)
	assert.Equal(t, "polished", out)

	assert.Equal(t, "gpt-test", client.chatReq.Model)
	require.Len(t, client.chatReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, client.chatReq.Messages[0].Role)
	assert.Equal(t, "polish this", client.chatReq.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, client.chatReq.Messages[1].Role)
	assert.Equal(t, "draft", client.chatReq.Messages[1].Content)
}

func TestOpenAI_GenerateTextWithoutInstruction(t *testing.T) {
	client := &fakeClient{chatResp: chatResponse("ok")}
	p := NewOpenAIWithClient(client, OpenAIConfig{APIKey: "sk-test"})

	_, err := p.GenerateText(context.Background(), "hi", "")
	require.NoError(t, err)
	require.Len(t, client.chatReq.Messages, 1)
	assert.Equal(t, DefaultTextModel, client.chatReq.Model)
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    OpenAIConfig
		client *fakeClient
		call   func(p *OpenAI) error
		want   error
	}{
		{
			name:   "missing key text",
			cfg:    OpenAIConfig{},
			client: &fakeClient{},
			call: func(p *OpenAI) error {
				_, err := p.GenerateText(context.Background(), "x", "y")
				return err
			},
			want: ErrMissingCredential,
		},
		{
			name:   "missing key image",
			cfg:    OpenAIConfig{},
			client: &fakeClient{},
			call: func(p *OpenAI) error {
				_, err := p.GenerateImage(context.Background(), "x", "1:1")
				return err
			},
			want: ErrMissingCredential,
		},
		{
			name:   "empty text response",
			cfg:    OpenAIConfig{APIKey: "k"},
			client: &fakeClient{},
			call: func(p *OpenAI) error {
				_, err := p.GenerateText(context.Background(), "x", "y")
				return err
			},
			want: ErrEmptyResponse,
		},
		{
			name:   "no image data",
			cfg:    OpenAIConfig{APIKey: "k"},
			client: &fakeClient{imgResp: openai.ImageResponse{Data: []openai.ImageResponseDataInner{{URL: "http://x"}}}},
			call: func(p *OpenAI) error {
				_, err := p.GenerateImage(context.Background(), "x", "1:1")
				return err
			},
			want: ErrNoImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOpenAIWithClient(tt.client, tt.cfg)
			err := tt.call(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var perr *Error
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestOpenAI_TransportErrorIsWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	p := NewOpenAIWithClient(&fakeClient{err: cause}, OpenAIConfig{APIKey: "k"})

	_, err := p.GenerateText(context.Background(), "x", "y")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "generate_text")
}

func TestOpenAI_GenerateImage(t *testing.T) {
	client := &fakeClient{imgResp: openai.ImageResponse{Data: []openai.ImageResponseDataInner{{B64JSON: "iVBOR"}}}}
	p := NewOpenAIWithClient(client, OpenAIConfig{APIKey: "k"})

	out, err := p.GenerateImage(context.Background(), "a cat", "16:9")
	require.NoError(t, err)
	assert.Equal(t, "iVBOR", out)

	assert.Equal(t, "Aspect Ratio: 16:9\n\na cat", client.imageReq.Prompt)
	assert.Equal(t, openai.CreateImageSize1792x1024, client.imageReq.Size)
	assert.Equal(t, openai.CreateImageResponseFormatB64JSON, client.imageReq.ResponseFormat)
	assert.Equal(t, DefaultImageModel, client.imageReq.Model)
	assert.Equal(t, 1, client.imageReq.N)
}

func TestImageSize(t *testing.T) {
	tests := map[string]string{
		"1:1":     openai.CreateImageSize1024x1024,
		"16:9":    openai.CreateImageSize1792x1024,
		"21:9":    openai.CreateImageSize1792x1024,
		"4:3":     openai.CreateImageSize1792x1024,
		"9:16":    openai.CreateImageSize1024x1792,
		"4:5":     openai.CreateImageSize1024x1792,
		"":        openai.CreateImageSize1024x1024,
		"wide":    openai.CreateImageSize1024x1024,
		"0:1":     openai.CreateImageSize1024x1024,
		"3:x":     openai.CreateImageSize1024x1024,
		"1024:10": openai.CreateImageSize1792x1024,
	}
	for ratio, want := range tests {
		assert.Equal(t, want, ImageSize(ratio), ratio)
	}
}
