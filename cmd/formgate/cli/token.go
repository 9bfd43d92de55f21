package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/formgate/formgate/internal/service"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect bearer tokens",
		Long:  "Issue bearer tokens locally, exactly as POST /token would, or check a token against the current signing secret.",
	}

	cmd.AddCommand(newTokenIssueCmd())
	cmd.AddCommand(newTokenVerifyCmd())

	return cmd
}

// ---------- token issue ----------

func newTokenIssueCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Exchange an API key for a bearer token",
		Example: `  formgate token issue                 # prompts for the key
  formgate token issue --api-key "$KEY"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenIssue(apiKey)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to exchange (prompted if omitted)")

	return cmd
}

func runTokenIssue(apiKey string) error {
	if apiKey == "" {
		fmt.Fprint(os.Stderr, "API key: ")
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		apiKey = strings.TrimSpace(string(keyBytes))
	}

	authSvc, closeStore, err := openAuthService()
	if err != nil {
		return err
	}
	defer closeStore()

	token, err := authSvc.IssueToken(context.Background(), apiKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAPIKey) {
			return fmt.Errorf("invalid API key")
		}
		return err
	}

	fmt.Println(token)
	return nil
}

// ---------- token verify ----------

func newTokenVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a bearer token's signature, issuer, audience and expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenVerify(args[0])
		},
	}
}

func runTokenVerify(token string) error {
	authSvc, closeStore, err := openAuthService()
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := authSvc.ValidateToken(context.Background(), token)
	if err != nil {
		return err
	}

	fmt.Println("Token is valid")
	fmt.Printf("  Subject: %s\n", p.Subject)
	fmt.Printf("  Role:    %s\n", p.Role)
	fmt.Printf("  Expires: %s (in %s)\n", p.ExpiresAt.Format(time.RFC3339), time.Until(p.ExpiresAt).Round(time.Minute))
	return nil
}

// openAuthService builds the token service from the effective config and
// the key store. The returned func closes the store.
func openAuthService() (*service.AuthService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := openConfigStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open config store: %w", err)
	}
	logger := newLogger(cfg.Logging, false, os.Stderr)

	authSvc, err := newAuthService(context.Background(), cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return authSvc, func() { store.Close() }, nil
}
