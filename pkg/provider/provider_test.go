package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcho(t *testing.T) {
	e := NewEcho()

	out, err := e.GenerateText(context.Background(), "hello", "Summarize\nkeep it short")
	require.NoError(t, err)
	assert.Equal(t, "[Summarize] hello", out)

	out, err = e.GenerateText(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	img, err := e.GenerateImage(context.Background(), "cat", "1:1")
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}

func TestEcho_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEcho().GenerateText(ctx, "x", "y")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFuncs_MissingCapability(t *testing.T) {
	var f Funcs
	_, err := f.GenerateText(context.Background(), "x", "y")
	assert.Error(t, err)
	_, err = f.GenerateImage(context.Background(), "x", "1:1")
	assert.Error(t, err)

	f.Text = func(ctx context.Context, prompt, instruction string) (string, error) {
		return prompt + instruction, nil
	}
	out, err := f.GenerateText(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}
