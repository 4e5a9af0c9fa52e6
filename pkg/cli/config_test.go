package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/typoflow/pkg/history"
	"github.com/dshills/typoflow/pkg/provider"
	"github.com/dshills/typoflow/pkg/storage"
)

func TestLoadSettings_WritesDefaults(t *testing.T) {
	dir := t.TempDir()

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
	assert.FileExists(t, filepath.Join(dir, settingsFile))

	again, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, settings, again)
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "provider:\n  name: echo\nhistory:\n  driver: memory\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFile), []byte(content), 0644))

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, ProviderEcho, settings.Provider.Name)
	assert.Equal(t, DriverMemory, settings.History.Driver)
	assert.Equal(t, "OPENAI_API_KEY", settings.Provider.APIKeyEnv)
	assert.Equal(t, ":3000", settings.Server.Addr)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"unknown provider", func(s *Settings) { s.Provider.Name = "gemini" }, true},
		{"unknown driver", func(s *Settings) { s.History.Driver = "mysql" }, true},
		{"postgres without dsn", func(s *Settings) { s.History.Driver = DriverPostgres; s.History.DSN = "" }, true},
		{"postgres with dsn", func(s *Settings) { s.History.Driver = DriverPostgres; s.History.DSN = "postgres://x" }, false},
		{"negative depth", func(s *Settings) { s.Engine.MaxDepth = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSettings_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFile), []byte("history:\n  driver: mysql\n"), 0644))
	_, err := LoadSettings(dir)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	s := DefaultSettings()

	p, err := newProvider(s, ProviderEcho)
	require.NoError(t, err)
	assert.IsType(t, &provider.Echo{}, p)

	t.Setenv("OPENAI_API_KEY", "")
	p, err = newProvider(s, "")
	require.NoError(t, err)
	_, err = p.GenerateText(context.Background(), "hi", "")
	assert.ErrorIs(t, err, provider.ErrMissingCredential)

	_, err = newProvider(s, "gemini")
	assert.Error(t, err)
}

func TestOpenHistoryStore(t *testing.T) {
	dir := t.TempDir()
	s := DefaultSettings()

	store, closeStore, err := openHistoryStore(context.Background(), s, dir)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteHistoryStore{}, store)
	assert.FileExists(t, filepath.Join(dir, storage.DatabaseFile))
	require.NoError(t, closeStore())

	s.History.Driver = DriverMemory
	store, closeStore, err = openHistoryStore(context.Background(), s, dir)
	require.NoError(t, err)
	assert.IsType(t, &history.MemoryStore{}, store)
	require.NoError(t, closeStore())
}
