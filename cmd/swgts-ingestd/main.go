package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flo1101/swgts-ingest/pkg/bootstrap"
	"github.com/flo1101/swgts-ingest/pkg/config"
	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/metrics"
	"github.com/flo1101/swgts-ingest/pkg/transport/socket"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "swgts-ingestd",
	Short:   "Sequence upload ingest daemon",
	Long:    `swgts-ingestd accepts streaming sequence-read uploads over HTTP and WebSocket, admits them against a per-session byte budget, and hands accepted batches to filter workers through a shared work queue.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"swgts-ingestd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to the primary config file")
	rootCmd.PersistentFlags().String("config-overlay", os.Getenv("CONFIG_FILE"), "Path to a config file overlaid on top of --config")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingest daemon",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-listen", "", "HTTP/WebSocket listen address (overrides config)")
	serveCmd.Flags().String("metrics-listen", "", "Metrics and health listen address (overrides config)")
	serveCmd.Flags().String("redis-addr", "", "State store address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	overlayPath, _ := cmd.Flags().GetString("config-overlay")

	cfg, err := config.Load(cfgPath, overlayPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cmd, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	handle, err := bootstrap.Run(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal(err.Error())
		return err
	}

	metrics.SetVersion(Version)
	handle.Collector.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	go func() {
		fmt.Printf("metrics endpoint: http://%s/metrics\n", cfg.MetricsListen)
		if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
			log.WithComponent("bootstrap").Error().Err(err).Msg("metrics server error")
		}
	}()

	httpServer := handle.HTTPServer(Version)
	topMux := http.NewServeMux()
	topMux.Handle("/ws", socket.Handler(handle.Hub, handle.Controller, handle.Registry))
	topMux.Handle("/", httpServer.Handler())

	ingressServer := &http.Server{
		Addr:         cfg.HTTPListen,
		Handler:      topMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := ingressServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	fmt.Printf("ingest daemon listening on %s\n", cfg.HTTPListen)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nshutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ingressServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "http shutdown: %v\n", err)
	}
	if err := handle.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	fmt.Println("shutdown complete")
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("http-listen"); v != "" {
		cfg.HTTPListen = v
	}
	if v, _ := cmd.Flags().GetString("metrics-listen"); v != "" {
		cfg.MetricsListen = v
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.RedisServer.Addr = v
	}
	if lvl, _ := cmd.Root().PersistentFlags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if json, _ := cmd.Root().PersistentFlags().GetBool("log-json"); cmd.Root().PersistentFlags().Changed("log-json") {
		cfg.LogJSON = json
	}
}
