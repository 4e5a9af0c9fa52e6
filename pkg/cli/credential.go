package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/typoflow/pkg/storage"
	"github.com/dshills/typoflow/pkg/validation"
)

const maxCredentialSize = 1 << 20 // 1MB limit for all credential inputs

// isOnlyWhitespace checks if a byte slice contains only Unicode whitespace characters
// without allocating strings. Returns true if empty or whitespace-only.
func isOnlyWhitespace(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid UTF-8 is treated as non-whitespace
			return false
		}
		if !unicode.IsSpace(r) {
			return false
		}
		i += size
	}
	return true
}

// NewCredentialCommand creates the credential management command
func NewCredentialCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage provider API keys",
		Long: `Manage provider API keys securely in the system keyring.
Keys are stored in your system's native credential store (Keychain on macOS,
Credential Manager on Windows, Secret Service on Linux) and never in plain text files.

The provider reads the key named by provider.credential_key in config.yaml and
falls back to the environment variable named by provider.api_key_env.`,
	}

	cmd.AddCommand(newCredentialSetCommand())
	cmd.AddCommand(newCredentialGetCommand())
	cmd.AddCommand(newCredentialDeleteCommand())
	cmd.AddCommand(newCredentialListCommand())

	return cmd
}

// readCredentialValue obtains the value from stdin, the --value flag or an
// interactive prompt, in that order of preference.
func readCredentialValue(cmd *cobra.Command, key, value string, useStdin bool) (string, error) {
	if useStdin {
		limitedReader := io.LimitReader(cmd.InOrStdin(), maxCredentialSize+1)
		inputBytes, err := io.ReadAll(limitedReader)
		defer func() {
			for i := range inputBytes {
				inputBytes[i] = 0
			}
		}()
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		if len(inputBytes) > maxCredentialSize {
			return "", fmt.Errorf("credential value exceeds maximum size of %d bytes", maxCredentialSize)
		}

		// Trim only trailing newline characters (preserve intentional spaces)
		trimmed := bytes.TrimRight(inputBytes, "\r\n")
		if len(trimmed) == 0 {
			return "", fmt.Errorf("credential value cannot be empty")
		}
		if isOnlyWhitespace(trimmed) {
			return "", fmt.Errorf("credential cannot contain only whitespace characters")
		}
		return string(trimmed), nil
	}

	if value != "" {
		_, _ = fmt.Fprintln(cmd.OutOrStderr(), "Warning: Using --value flag exposes credential in shell history.")
		if len(value) > maxCredentialSize {
			return "", fmt.Errorf("credential value exceeds maximum size of %d bytes", maxCredentialSize)
		}
		if strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("credential cannot contain only whitespace characters")
		}
		return value, nil
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Enter value for '%s': ", key)
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	defer func() {
		for i := range passwordBytes {
			passwordBytes[i] = 0
		}
	}()
	if err != nil {
		return "", fmt.Errorf("failed to read credential value: %w", err)
	}
	if len(passwordBytes) > maxCredentialSize {
		return "", fmt.Errorf("credential value exceeds maximum size of %d bytes", maxCredentialSize)
	}
	if isOnlyWhitespace(passwordBytes) {
		return "", fmt.Errorf("credential cannot contain only whitespace characters")
	}
	return string(passwordBytes), nil
}

func newCredentialSetCommand() *cobra.Command {
	var (
		value    string
		useStdin bool
	)

	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store an API key",
		Long: `Store an API key in the system keyring.

Examples:
  # Interactive prompt (recommended for local use)
  typoflow credential set openai-api-key

  # From stdin (recommended for automation/CI/CD)
  printf '%s' "$OPENAI_API_KEY" | typoflow credential set openai-api-key --stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validation.ValidateName(key); err != nil {
				return fmt.Errorf("invalid credential key: %w", err)
			}

			credValue, err := readCredentialValue(cmd, key, value, useStdin)
			if err != nil {
				return err
			}
			if err := credentialStore.Set(key, credValue); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Credential '%s' stored\n", key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&value, "value", "v", "", "Credential value (optional - will prompt securely if omitted)")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "Read credential value from stdin")
	cmd.MarkFlagsMutuallyExclusive("stdin", "value")

	return cmd
}

func newCredentialGetCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Check whether an API key is stored",
		Long: `Report whether an API key is stored. The value is masked unless --reveal is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := credentialStore.Get(args[0])
			if errors.Is(err, storage.ErrCredentialNotFound) {
				return fmt.Errorf("credential '%s' is not set", args[0])
			}
			if err != nil {
				return err
			}
			if reveal {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (set)\n", args[0], maskSecret(v))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the stored value")

	return cmd
}

// maskSecret keeps the last four characters of long values.
func maskSecret(v string) string {
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

func newCredentialDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := credentialStore.Delete(args[0])
			if errors.Is(err, storage.ErrCredentialNotFound) {
				return fmt.Errorf("credential '%s' is not set", args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Credential '%s' deleted\n", args[0])
			return nil
		},
	}
}

func newCredentialListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored API key names",
		Long: `List the names of stored API keys. Values are never shown.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := credentialStore.List()
			if err != nil {
				return fmt.Errorf("failed to list credentials: %w", err)
			}
			if len(keys) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials configured.")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\nAdd one with: typoflow credential set <key>")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configured Credentials:")
			for _, k := range keys {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  - %s (set)\n", k)
			}
			return nil
		},
	}
}
