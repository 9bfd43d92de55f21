package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/internal/config"
	"github.com/formgate/formgate/internal/model"
)

const (
	apiKeyPrefix    = "fg_"
	apiKeyPrefixLen = len(apiKeyPrefix) + 8
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long: `Create, list, and revoke managed API keys. A managed key is exchanged for a
bearer token at POST /token just like a key from auth.api_keys, but it can be
revoked or given an expiry without editing the configuration.`,
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		label   string
		expires time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once and cannot be retrieved again.",
		Example: `  formgate key create --label "marketing site"
  formgate key create --label "partner preview" --expires 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(label, expires)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Human-readable label for the key")
	cmd.Flags().DurationVar(&expires, "expires", 0, "Lifetime of the key, e.g. 720h (default: never expires)")

	return cmd
}

// newRawAPIKey returns a fresh key: "fg_" followed by 32 random bytes, hex
// encoded.
func newRawAPIKey() (string, error) {
	random, err := config.RandomHex(32)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + random, nil
}

func runKeyCreate(label string, expires time.Duration) error {
	if expires < 0 {
		return fmt.Errorf("--expires must not be negative")
	}

	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	rawKey, err := newRawAPIKey()
	if err != nil {
		return err
	}

	apiKey := &model.APIKey{
		KeyHash:   config.HashAPIKey(rawKey),
		KeyPrefix: rawKey[:apiKeyPrefixLen],
		Label:     label,
		IsActive:  true,
	}
	if expires > 0 {
		at := time.Now().UTC().Add(expires)
		apiKey.ExpiresAt = &at
	}

	if err := store.CreateAPIKey(context.Background(), apiKey); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:     %s\n", rawKey)
	if label != "" {
		fmt.Printf("  Label:   %s\n", label)
	}
	if apiKey.ExpiresAt != nil {
		fmt.Printf("  Expires: %s\n", apiKey.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	keys, err := store.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	if jsonOutput {
		if keys == nil {
			keys = []model.APIKey{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys configured. Use 'formgate key create' to create one.")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-12s %-24s %-8s %-20s %-20s\n", "PREFIX", "LABEL", "ACTIVE", "EXPIRES", "LAST USED")
	fmt.Printf("%-12s %-24s %-8s %-20s %-20s\n", "------", "-----", "------", "-------", "---------")
	for _, k := range keys {
		active := "yes"
		if !k.Usable(now) {
			active = "no"
		}
		fmt.Printf("%-12s %-24s %-8s %-20s %-20s\n", k.KeyPrefix, k.Label, active, formatTime(k.ExpiresAt, "never"), formatTime(k.LastUsed, "-"))
	}

	return nil
}

func formatTime(t *time.Time, zero string) string {
	if t == nil {
		return zero
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its prefix",
		Long:  "Deactivate an API key so it can no longer be exchanged for tokens. Tokens already issued stay valid until they expire.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}

	return cmd
}

func runKeyRevoke(prefix string) error {
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	keys, err := store.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	// Accept any unambiguous leading part of the displayed prefix.
	var matched []model.APIKey
	for _, k := range keys {
		if k.IsActive && strings.HasPrefix(k.KeyPrefix, prefix) {
			matched = append(matched, k)
		}
	}
	switch len(matched) {
	case 0:
		return fmt.Errorf("no active API key found with prefix %q", prefix)
	case 1:
	default:
		return fmt.Errorf("prefix %q matches %d keys; use the full prefix", prefix, len(matched))
	}

	if err := store.RevokeAPIKey(ctx, matched[0].ID); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("no API key found with prefix %q", prefix)
		}
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key with prefix %q\n", matched[0].KeyPrefix)
	return nil
}
