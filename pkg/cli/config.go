package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dshills/typoflow/pkg/execution"
	"github.com/dshills/typoflow/pkg/history"
	"github.com/dshills/typoflow/pkg/provider"
	"github.com/dshills/typoflow/pkg/session"
	"github.com/dshills/typoflow/pkg/storage"
)

const settingsFile = "config.yaml"

// Provider names accepted in config.yaml and by --provider.
const (
	ProviderEcho   = "echo"
	ProviderOpenAI = "openai"
)

// History drivers accepted in config.yaml.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Settings is the content of config.yaml.
type Settings struct {
	Version  string           `yaml:"version"`
	Provider ProviderSettings `yaml:"provider"`
	History  HistorySettings  `yaml:"history"`
	Engine   EngineSettings   `yaml:"engine"`
	Server   ServerSettings   `yaml:"server"`
}

// ProviderSettings selects and configures the generation provider.
type ProviderSettings struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url,omitempty"`
	TextModel  string `yaml:"text_model,omitempty"`
	ImageModel string `yaml:"image_model,omitempty"`
	// CredentialKey names the keyring entry holding the API key.
	CredentialKey string `yaml:"credential_key"`
	// APIKeyEnv is consulted when the keyring has no entry.
	APIKeyEnv string `yaml:"api_key_env"`
}

// HistorySettings selects the snapshot store.
type HistorySettings struct {
	Driver string `yaml:"driver"`
	// DSN is the database path for sqlite (relative to the config
	// directory) or the connection string for postgres.
	DSN string `yaml:"dsn,omitempty"`
}

// EngineSettings tunes the execution engine.
type EngineSettings struct {
	MaxDepth int `yaml:"max_depth"`
}

// ServerSettings configures the serve command.
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// DefaultSettings returns the configuration written on first use.
func DefaultSettings() *Settings {
	return &Settings{
		Version: "1.0",
		Provider: ProviderSettings{
			Name:          ProviderOpenAI,
			TextModel:     provider.DefaultTextModel,
			ImageModel:    provider.DefaultImageModel,
			CredentialKey: "openai-api-key",
			APIKeyEnv:     "OPENAI_API_KEY",
		},
		History: HistorySettings{
			Driver: DriverSQLite,
			DSN:    storage.DatabaseFile,
		},
		Engine: EngineSettings{MaxDepth: execution.DefaultMaxDepth},
		Server: ServerSettings{Addr: ":3000"},
	}
}

// LoadSettings reads config.yaml from configDir, writing the defaults
// first if the file does not exist. Missing keys keep their defaults.
func LoadSettings(configDir string) (*Settings, error) {
	path := filepath.Join(configDir, settingsFile)
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		out, err := yaml.Marshal(settings)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(path, out, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks enumerated settings.
func (s *Settings) Validate() error {
	switch s.Provider.Name {
	case ProviderEcho, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q (expected %s or %s)", s.Provider.Name, ProviderEcho, ProviderOpenAI)
	}
	switch s.History.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if s.History.DSN == "" {
			return fmt.Errorf("history driver postgres requires a dsn")
		}
	default:
		return fmt.Errorf("unknown history driver %q", s.History.Driver)
	}
	if s.Engine.MaxDepth < 0 {
		return fmt.Errorf("engine max_depth cannot be negative")
	}
	return nil
}

// credentialStore is swapped in tests.
var credentialStore storage.CredentialStore = storage.NewKeyringCredentialStore()

// newProvider builds the provider named by s, or by override when set.
func newProvider(s *Settings, override string) (provider.Provider, error) {
	name := s.Provider.Name
	if override != "" {
		name = override
	}
	switch name {
	case ProviderEcho:
		return provider.NewEcho(), nil
	case ProviderOpenAI:
		return provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:     storage.ResolveSecret(credentialStore, s.Provider.CredentialKey, s.Provider.APIKeyEnv),
			BaseURL:    s.Provider.BaseURL,
			TextModel:  s.Provider.TextModel,
			ImageModel: s.Provider.ImageModel,
		}), nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

// openHistoryStore opens the snapshot store selected by s. The returned
// close function is never nil.
func openHistoryStore(ctx context.Context, s *Settings, configDir string) (history.Store, func() error, error) {
	noop := func() error { return nil }

	switch s.History.Driver {
	case DriverMemory:
		return history.NewMemoryStore(), noop, nil
	case DriverPostgres:
		store, err := storage.NewPostgresHistoryStore(ctx, s.History.DSN)
		if err != nil {
			return nil, noop, err
		}
		if err := store.CreateSchema(ctx); err != nil {
			_ = store.Close()
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		dsn := s.History.DSN
		if dsn == "" {
			dsn = storage.DatabaseFile
		}
		if !filepath.IsAbs(dsn) {
			dsn = filepath.Join(configDir, dsn)
		}
		store, err := storage.NewSQLiteHistoryStore(dsn)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	}
}

// openSession loads settings and wires a session with its provider and
// history store. The caller must call the returned close function.
func openSession(ctx context.Context, providerOverride string) (*session.Session, *Settings, func(), error) {
	configDir := GetConfigDir()
	settings, err := LoadSettings(configDir)
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := newProvider(settings, providerOverride)
	if err != nil {
		return nil, nil, nil, err
	}

	store, closeStore, err := openHistoryStore(ctx, settings, configDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}

	sess := session.New(p, store, execution.Options{
		MaxDepth: settings.Engine.MaxDepth,
		Logger:   execution.NewLogger("typoflow"),
	})
	cleanup := func() {
		_ = sess.Close()
		_ = closeStore()
	}
	return sess, settings, cleanup, nil
}
