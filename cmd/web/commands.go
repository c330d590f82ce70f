package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-while/go-mcpdir/internal/config"
	"github.com/go-while/go-mcpdir/internal/listings"
	"github.com/go-while/go-mcpdir/internal/logging"
	"github.com/go-while/go-mcpdir/internal/web"
)

// v collects env and flag values; config.Load freezes it.
var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:           "web",
	Short:         "TomsMCPs - Model Context Protocol server directory",
	Long:          "Serves the MCP server directory page, its favicon and a health check.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the servers file and print its record count",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.AppVersion)
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "error: %v\n", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("host", config.DefaultHost, "listen host (env HOST)")
	pf.Int("port", config.DefaultPort, "listen port (env PORT)")
	pf.String("data-file", config.DefaultDataFile, "servers JSON file (env DATA_FILE)")
	pf.String("static-dir", config.DefaultStaticDir, "static files directory (env STATIC_DIR)")
	pf.String("log-level", config.DefaultLogLevel, "log level (env LOG_LEVEL)")

	for key, flag := range map[string]string{
		"host":       "host",
		"port":       "port",
		"data_file":  "data-file",
		"static_dir": "static-dir",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New(v.GetString("log_level"))
	logger.Infof("[WEB]: Starting go-mcpdir web server (version: %s)", config.AppVersion)

	cfg, err := config.Load(v)
	if err != nil {
		// nothing is served with a broken config
		logger.Fatalf("[CONFIG]: %v", err)
	}
	if cfg.SecretDefaulted {
		logger.Warnf("[CONFIG]: SESSION_SECRET not set, using development default")
	}
	logger.Debugf("[CONFIG]: env=%s debug=%t addr=%s data=%s static=%s", cfg.Env, cfg.Debug, cfg.Addr(), cfg.DataFile, cfg.StaticDir)

	if cfg.PprofAddr != "" {
		startProfiler(cfg.PprofAddr, logger)
	}

	server, err := web.NewServer(cfg, logger)
	if err != nil {
		logger.Fatalf("[WEB]: Failed to create web server: %v", err)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()
	logger.Infof("[WEB]: Server started. Press Ctrl+C to gracefully shutdown...")

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	updateFileChan := make(chan bool, 1)
	if cfg.UpdateFile != "" {
		go monitorUpdateFile(monitorCtx, cfg.UpdateFile, cfg.UpdateInterval, updateFileChan, logger)
	}

	// Wait for either shutdown signal, server error, or update file
	select {
	case sig := <-sigChan:
		logger.Infof("[WEB]: Received %s, initiating graceful shutdown...", sig)
	case err := <-webServerErrChan:
		logger.Errorf("[WEB]: Web server failed: %v", err)
		return err
	case <-updateFileChan:
		logger.Infof("[WEB]: Update file detected, initiating graceful shutdown for update...")
	}
	stopMonitor()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("[WEB]: Graceful shutdown failed: %v", err)
		return err
	}
	logger.Infof("[WEB]: Graceful shutdown completed")
	return nil
}

// runCheck loads the servers file without the empty-list fallback so a
// broken file is reported with a non-zero exit.
func runCheck(cmd *cobra.Command, args []string) error {
	path := v.GetString("data_file")
	records, err := listings.Load(path)
	if err != nil {
		return fmt.Errorf("%s (%s): %w", path, listings.Kind(err), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d servers\n", path, len(records))
	if cats := listings.Categories(records); len(cats) > 0 {
		fmt.Fprintf(out, "categories: %s\n", strings.Join(cats, ", "))
	}
	return nil
}
