package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCredential(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCredentialCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCredentialLifecycle(t *testing.T) {
	out, err := runCredential(t, "", "set", "lifecycle-key", "--value", "sk-test-123456789")
	require.NoError(t, err)
	assert.Contains(t, out, "Credential 'lifecycle-key' stored")
	assert.Contains(t, out, "Warning: Using --value flag")

	out, err = runCredential(t, "", "get", "lifecycle-key")
	require.NoError(t, err)
	assert.Contains(t, out, "*************6789")
	assert.NotContains(t, out, "sk-test")

	out, err = runCredential(t, "", "get", "lifecycle-key", "--reveal")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123456789\n", out)

	out, err = runCredential(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "lifecycle-key (set)")

	out, err = runCredential(t, "", "delete", "lifecycle-key")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = runCredential(t, "", "get", "lifecycle-key")
	assert.ErrorContains(t, err, "is not set")

	_, err = runCredential(t, "", "delete", "lifecycle-key")
	assert.ErrorContains(t, err, "is not set")
}

func TestCredentialSet_Stdin(t *testing.T) {
	_, err := runCredential(t, "  spaced secret  \r\n", "set", "stdin-key", "--stdin")
	require.NoError(t, err)
	v, err := credentialStore.Get("stdin-key")
	require.NoError(t, err)
	assert.Equal(t, "  spaced secret  ", v)
	require.NoError(t, credentialStore.Delete("stdin-key"))
}

func TestCredentialSet_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		stdin       string
		args        []string
		errContains string
	}{
		{"invalid key", "", []string{"set", "bad key", "--value", "x"}, "invalid credential key"},
		{"whitespace value", "", []string{"set", "k", "--value", "   "}, "only whitespace"},
		{"empty stdin", "\n", []string{"set", "k", "--stdin"}, "cannot be empty"},
		{"whitespace stdin", " \t \n", []string{"set", "k", "--stdin"}, "only whitespace"},
		{"exclusive flags", "", []string{"set", "k", "--stdin", "--value", "x"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCredential(t, tt.stdin, tt.args...)
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestIsOnlyWhitespace(t *testing.T) {
	assert.True(t, isOnlyWhitespace(nil))
	assert.True(t, isOnlyWhitespace([]byte(" \t ")))
	assert.False(t, isOnlyWhitespace([]byte(" a ")))
	assert.False(t, isOnlyWhitespace([]byte{0xff}))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "******6789", maskSecret("abcdef6789"))
}
