package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	fmcp "github.com/formgate/formgate/internal/mcp"
	"github.com/formgate/formgate/internal/openapi"
	"github.com/formgate/formgate/internal/server"
)

const banner = `
  __                            _
 / _| ___  _ __ _ __ ___   __ _| |_ ___
| |_ / _ \| '__| '_ ` + "`" + ` _ \ / _` + "`" + ` | __/ _ \
|  _| (_) | |  | | | | | | (_| | ||  __/
|_|  \___/|_|  |_| |_| |_|\__, |\__\___|
                          |___/
`

func newServeCmd() *cobra.Command {
	var (
		noUI       bool
		dev        bool
		background bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the formgate API server",
		Long:  "Start the HTTP server that exposes marketing forms, token issuance and the preview frontend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if background {
				return runBackground()
			}
			return runServe(noUI, dev)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the preview frontend")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")
	cmd.Flags().BoolVar(&background, "background", false, "Run the server as a background process")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(noUI, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, dev, os.Stderr)
	ctx := context.Background()

	fmt.Print(banner)
	fmt.Println()

	// 1. Key store (SQLite): managed API keys and the generated signing secret
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	defer store.Close()
	logger.Info("config store initialized", "path", resolveDataDir())

	// 2. Upstream, cache and slug codec
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// 3. Token service
	authSvc, err := newAuthService(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	if len(cfg.Auth.APIKeys) == 0 {
		keys, _ := store.ListAPIKeys(ctx)
		if len(keys) == 0 {
			logger.Warn("no API keys configured - set auth.api_keys or run: formgate key create")
		}
	}

	// 4. MCP over streamable HTTP, mounted behind bearer auth
	mcpSrv := fmcp.NewMCPServer(a.forms, a.codec, cfg.Slugs.MaxLength, versionString(), logger)

	// 5. Build and start HTTP server
	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		EnableUI:        cfg.UI.Enabled && !noUI,
		UIAPIKey:        cfg.UI.APIKey,
		TokenRateLimit:  cfg.Server.TokenRateLimit,
		Role:            cfg.Auth.Role,
	}
	if srvCfg.EnableUI && srvCfg.UIAPIKey == "" {
		logger.Warn("ui.api_key is empty - the frontend will not be able to request a token")
	}

	srv := server.New(srvCfg, server.Deps{
		Registry: a.registry,
		Forms:    a.forms,
		Auth:     authSvc,
		OpenAPI:  openapi.Generate(openapi.Options{Version: versionString()}),
		MCP:      mcpSrv.Handler(),
	}, logger)

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	host := cfg.Server.Host
	if host == "0.0.0.0" {
		host = "localhost"
	}
	fmt.Printf("→ formgate %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, cfg.Server.Port)
	if srvCfg.EnableUI {
		fmt.Printf("→ Frontend:   http://%s:%d/\n", host, cfg.Server.Port)
	}
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, cfg.Server.Port)
	fmt.Printf("→ Upstream:   %s (%s)\n", cfg.Upstream.Name, cfg.Upstream.Driver)
	fmt.Println()

	return srv.ListenAndServe()
}

// runBackground re-executes the current binary without --background,
// detached from the terminal, with output appended to the log file.
func runBackground() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	var args []string
	for _, a := range os.Args[1:] {
		if a == "--background" || a == "--background=true" {
			continue
		}
		args = append(args, a)
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start background server: %w", err)
	}
	if err := writePID(child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}

	fmt.Printf("formgate started in the background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	fmt.Println("  Stop: formgate stop")
	return child.Process.Release()
}
