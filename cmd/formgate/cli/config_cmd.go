package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/formgate/formgate/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage formgate configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default formgate.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", "formgate.yaml", "Path of the file to write")

	return cmd
}

func runConfigInit(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.WriteDefaultConfig(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("It serves forms from ./forms.yaml. Point upstream.driver and upstream.dsn")
	fmt.Println("at the CRM database, add auth.api_keys, then run 'formgate serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		Long:  "Print the configuration formgate would run with after merging defaults, the config file and FORMGATE_* variables. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(reveal)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets unmasked")

	return cmd
}

func runConfigShow(reveal bool) error {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("# Config file: %s\n", configFile)
	} else {
		fmt.Println("# Config file: (none found, using defaults)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !reveal {
		cfg = cfg.Redacted()
	}

	out, err := config.MarshalYAML(cfg)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
