package graphchat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"graphchat/pkg/config"
	"graphchat/pkg/dispatch"
	"graphchat/pkg/engine"
	"graphchat/pkg/health"
	"graphchat/pkg/logger"
	"graphchat/pkg/render"
	"graphchat/pkg/server"
	"graphchat/pkg/telemetry"
	"graphchat/pkg/transcript"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the GraphChat HTTP server",
	Long: `Start the GraphChat HTTP server to provide REST API access to the
GraphRAG retrieval engine.

The server provides endpoints for:
- Submitting search queries (global, local, basic)
- Reading and resetting per-session conversation history
- UI metadata (search modes, example queries)
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Engine flags
	serverCmd.Flags().String("engine-kind", "", "Engine kind (cli, http)")
	serverCmd.Flags().String("engine-project-dir", "", "GraphRAG project directory (cli engine)")
	serverCmd.Flags().String("engine-base-url", "", "Query service base URL (http engine)")
	serverCmd.Flags().Int("engine-timeout", 0, "Search timeout in seconds")

	// Transcript flags
	serverCmd.Flags().String("transcript-backend", "", "Transcript backend (memory, redis)")
	serverCmd.Flags().String("redis-url", "", "Redis URL for the transcript store")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for parquet capture of warning and error logs")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideConfigWithFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, flushTelemetry, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer flushTelemetry()
	slog.SetDefault(log)

	eng := buildEngine(cfg, log)
	store, err := buildTranscriptStore(cfg, log)
	if err != nil {
		return err
	}

	dispatcher := dispatch.New(eng, dispatch.Config{
		Timeout: time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
	}, log)
	renderer := render.New(cfg.Render)
	probe := health.New(cfg.Engine, log)

	srv := server.New(cfg, dispatcher, renderer, store, probe, log)
	if err := srv.Setup(); err != nil {
		return fmt.Errorf("failed to set up server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("Received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Info("Server stopped gracefully")
		return nil
	}
}

// buildLogger constructs the console logger, optionally wrapped with
// parquet telemetry capture. The returned func flushes any buffered
// telemetry and is safe to call when telemetry is disabled.
func buildLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := logger.ParseLevel(cfg.Log.Level)
	if cfg.Telemetry.ParquetPath == "" {
		return logger.NewDefaultLogger(level), func() {}, nil
	}

	base := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	handler, err := telemetry.NewParquetHandler(base, cfg.Telemetry.ParquetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	flush := func() {
		_ = handler.Flush()
	}
	return slog.New(handler), flush, nil
}

// buildEngine constructs the configured engine adapter, wrapped in a
// circuit breaker when enabled.
func buildEngine(cfg *config.Config, log *slog.Logger) engine.Engine {
	var eng engine.Engine
	switch cfg.Engine.Kind {
	case config.EngineHTTP:
		eng = engine.NewHTTPEngine(cfg.Engine)
	default:
		eng = engine.NewCLIEngine(cfg.Engine)
	}

	if cfg.CircuitBreaker.Enabled {
		eng = engine.NewCircuitBreakerEngine(eng, cfg.CircuitBreaker, log)
	}
	return eng
}

// buildTranscriptStore constructs the configured transcript backend.
func buildTranscriptStore(cfg *config.Config, log *slog.Logger) (transcript.Store, error) {
	if cfg.Transcript.Backend != "redis" {
		return transcript.NewMemoryStore(), nil
	}

	opt, err := redis.ParseURL(cfg.Transcript.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return transcript.NewRedisStore(transcript.RedisStoreConfig{
		Client: client,
		TTL:    time.Duration(cfg.Transcript.TTLSeconds) * time.Second,
		Logger: log,
	}), nil
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("engine-kind") {
		cfg.Engine.Kind, _ = cmd.Flags().GetString("engine-kind")
	}
	if cmd.Flags().Changed("engine-project-dir") {
		cfg.Engine.ProjectDir, _ = cmd.Flags().GetString("engine-project-dir")
	}
	if cmd.Flags().Changed("engine-base-url") {
		cfg.Engine.BaseURL, _ = cmd.Flags().GetString("engine-base-url")
	}
	if cmd.Flags().Changed("engine-timeout") {
		cfg.Engine.TimeoutSeconds, _ = cmd.Flags().GetInt("engine-timeout")
	}

	if cmd.Flags().Changed("transcript-backend") {
		cfg.Transcript.Backend, _ = cmd.Flags().GetString("transcript-backend")
	}
	if cmd.Flags().Changed("redis-url") {
		cfg.Transcript.RedisURL, _ = cmd.Flags().GetString("redis-url")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}
