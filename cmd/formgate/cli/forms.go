package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/internal/model"
	"github.com/formgate/formgate/internal/service"
)

func newFormsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Read marketing forms straight from the upstream",
		Long:  "List and fetch live marketing forms using the configured upstream, without going through a running server.",
	}

	cmd.AddCommand(newFormsListCmd())
	cmd.AddCommand(newFormsGetCmd())

	return cmd
}

// withForms opens the upstream for a single CLI invocation.
func withForms(fn func(ctx context.Context, forms *service.FormService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Quiet unless something goes wrong; stdout carries the result.
	cfg.Logging.Level = "warn"
	logger := newLogger(cfg.Logging, false, os.Stderr)

	ctx := context.Background()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.forms)
}

// ---------- forms list ----------

func newFormsListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List live marketing forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withForms(func(ctx context.Context, forms *service.FormService) error {
				list, err := forms.List(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				if len(list) == 0 {
					fmt.Println("No live marketing forms found.")
					return nil
				}
				fmt.Printf("%-40s %-40s %8s\n", "NAME", "SLUG", "HTML")
				fmt.Printf("%-40s %-40s %8s\n", "----", "----", "----")
				for _, f := range list {
					fmt.Printf("%-40s %-40s %8d\n", f.Name, f.Slug, len(f.HTMLContent))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- forms get ----------

func newFormsGetCmd() *cobra.Command {
	var htmlOnly bool

	cmd := &cobra.Command{
		Use:   "get <idOrSlug>",
		Short: "Fetch one live marketing form by GUID or slug",
		Example: `  formgate forms get 6f9619ff-8b86-d011-b42d-00c04fc964ff
  formgate forms get cafe-mueller-sign-up --html > form.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withForms(func(ctx context.Context, forms *service.FormService) error {
				// Listing first records the exact slug of every live form.
				if _, err := forms.List(ctx); err != nil {
					return err
				}

				form, err := forms.Lookup(ctx, args[0])
				var nf *service.NotFoundError
				if errors.As(err, &nf) {
					return errors.New(nf.Error())
				}
				if err != nil {
					return err
				}

				if htmlOnly {
					fmt.Println(form.HTMLContent)
					return nil
				}
				return printForm(form)
			})
		},
	}

	cmd.Flags().BoolVar(&htmlOnly, "html", false, "Print only the form HTML")

	return cmd
}

func printForm(f *model.FormResponse) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(f)
}
