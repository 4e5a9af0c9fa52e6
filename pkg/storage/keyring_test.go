package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringCredentialStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringCredentialStore()

	keys, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Set("openai", "sk-1"))
	require.NoError(t, store.Set("gateway", "sk-2"))
	require.NoError(t, store.Set("openai", "sk-3"))

	v, err := store.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-3", v)

	keys, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "gateway"}, keys)

	require.NoError(t, store.Delete("openai"))
	_, err = store.Get("openai")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.ErrorIs(t, store.Delete("openai"), ErrCredentialNotFound)

	keys, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"gateway"}, keys)

	assert.Error(t, store.Set("", "x"))
	assert.Error(t, store.Set(indexKey, "x"))
}

func TestResolveSecret(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringCredentialStore()

	t.Setenv("TYPOFLOW_TEST_KEY", "from-env")
	assert.Equal(t, "from-env", ResolveSecret(store, "openai", "TYPOFLOW_TEST_KEY"))

	require.NoError(t, store.Set("openai", "from-keyring"))
	assert.Equal(t, "from-keyring", ResolveSecret(store, "openai", "TYPOFLOW_TEST_KEY"))

	assert.Equal(t, "from-env", ResolveSecret(nil, "openai", "TYPOFLOW_TEST_KEY"))
	assert.Equal(t, "", ResolveSecret(nil, "", ""))
}
