package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/internal/slug"
)

func newSlugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slug",
		Short: "Convert between form names and URL slugs",
		Long: `Generate URL slugs from form names and turn slugs back into names.

When slugs.store is redis, generated slugs are remembered in the shared
mapping store, so deslug returns the exact original text for them.`,
	}

	cmd.AddCommand(newSlugGenerateCmd())
	cmd.AddCommand(newSlugDeslugCmd())
	cmd.AddCommand(newSlugUniqueCmd())

	return cmd
}

// openCodec builds a codec over the configured mapping store.
func openCodec(ctx context.Context) (*slug.Codec, int, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, 0, nil, err
	}
	store, closeStore, err := openSlugStore(ctx, cfg)
	if err != nil {
		return nil, 0, nil, err
	}
	logger := newLogger(cfg.Logging, false, os.Stderr)
	return slug.NewCodec(store, logger), cfg.Slugs.MaxLength, closeStore, nil
}

// ---------- slug generate ----------

func newSlugGenerateCmd() *cobra.Command {
	var maxLength int

	cmd := &cobra.Command{
		Use:     "generate <text>",
		Short:   "Generate a slug from text",
		Example: `  formgate slug generate "Café Müller Sign-up"   # cafe-mueller-sign-up`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			codec, cfgMax, closeStore, err := openCodec(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if maxLength <= 0 {
				maxLength = cfgMax
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.GenerateN(ctx, strings.Join(args, " "), maxLength))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxLength, "max-length", 0, "Maximum slug length (default: slugs.max_length)")

	return cmd
}

// ---------- slug deslug ----------

func newSlugDeslugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deslug <slug>",
		Short: "Recover the original text for a slug",
		Long:  "Print the text a slug was generated from. Slugs that were never recorded are turned back into title-cased words.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			codec, _, closeStore, err := openCodec(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			fmt.Fprintln(cmd.OutOrStdout(), codec.DeSlug(ctx, args[0]))
			return nil
		},
	}
}

// ---------- slug unique ----------

func newSlugUniqueCmd() *cobra.Command {
	var (
		existing  []string
		maxLength int
	)

	cmd := &cobra.Command{
		Use:   "unique <base>",
		Short: "Make a slug unique against existing ones",
		Example: `  formgate slug unique contact-us --existing contact-us,contact-us-1   # contact-us-2`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxLength <= 0 {
				maxLength = slug.DefaultMaxLength
			}
			unique, err := slug.EnsureUnique(args[0], existing, maxLength)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), unique)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&existing, "existing", nil, "Slugs already in use (comma separated)")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "Maximum slug length")

	return cmd
}
