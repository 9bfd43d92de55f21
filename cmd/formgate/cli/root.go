package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/formgate/formgate/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve, mcp and the OpenAPI document
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formgate",
		Short: "Serve CRM marketing forms over a small token-protected API",
		Long: `formgate: Serve CRM marketing forms over a small token-protected API.

formgate reads live marketing forms from the CRM's database, exposes them by
GUID or human-readable slug, caches lookups, and hands out bearer tokens in
exchange for API keys. A built-in frontend previews forms and an MCP server
makes the catalogue available to AI agents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./formgate.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite key store (default: ~/.formgate)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newSlugCmd())
	cmd.AddCommand(newFormsCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("formgate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.formgate")
	}

	config.Bind(viper.GetViper())
	viper.ReadInConfig() // Ignore error - config file is optional
}

// loadConfig decodes and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}
