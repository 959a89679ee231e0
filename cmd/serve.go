package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/drivepath/internal/config"
	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/logging"
	"github.com/teemow/drivepath/internal/server"
	"github.com/teemow/drivepath/internal/tools/drive_tools"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server to provide Google Drive
tools for AI assistants.

Supports two transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP server with health endpoints

Write tools (move, rename, create, bulk) are only registered with --yolo.

Credentials are read from the token file or from GOOGLE_ACCESS_TOKEN and
GOOGLE_REFRESH_TOKEN. Refreshing needs GOOGLE_CLIENT_ID and
GOOGLE_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().String("http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().Bool("disable-streaming", false, "Disable SSE streaming responses (for streamable-http transport)")
	cmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout for the HTTP servers")
	cmd.Flags().Bool("metrics-enabled", true, "Serve Prometheus metrics (for streamable-http transport)")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig, instrumentation.WithProviderLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	var audit *instrumentation.AuditLogger
	if provider.Enabled() {
		metrics = provider.Metrics()
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	store, tokens, err := openStore(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(ctx, server.Config{
		Store:       store,
		Tokens:      tokens,
		Yolo:        cfg.Yolo,
		Logger:      logger,
		Metrics:     metrics,
		AuditLogger: audit,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("drivepath", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := drive_tools.RegisterDriveTools(mcpSrv, serverContext); err != nil {
		return err
	}

	if cfg.Yolo {
		logger.Info("write operations enabled")
	} else {
		logger.Info("read-only mode, use --yolo to enable write operations")
	}

	switch cfg.Server.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(ctx, mcpSrv, serverContext, provider, cfg, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Server.Transport)
	}
}

// runStdioServer serves the MCP protocol on stdin/stdout until the client
// disconnects or a termination signal arrives.
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// runStreamableHTTPServer serves /mcp and the health endpoints on the HTTP
// address, plus the metrics server when enabled. Both stop when ctx is done.
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, cfg *config.Config, logger *slog.Logger) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithDisableStreaming(cfg.Server.DisableStreaming),
	)

	health := server.NewHealthChecker(sc)
	mux := http.NewServeMux()
	mux.Handle("/mcp", httpServer)
	health.RegisterHealthEndpoints(mux)

	srv := &http.Server{
		Handler:           otelhttp.NewHandler(mux, "drivepath"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.HTTPAddr, err)
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.PrometheusHandler() != nil {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := metricsServer.Listen(); err != nil {
			_ = ln.Close()
			return err
		}
	}

	logger.Info("streamable HTTP server starting",
		slog.String("addr", ln.Addr().String()),
		slog.String("endpoint", "/mcp"),
		slog.Bool("streaming", !cfg.Server.DisableStreaming))
	if metricsServer != nil {
		logger.Info("metrics server starting", slog.String("addr", metricsServer.Addr()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	})
	if metricsServer != nil {
		g.Go(metricsServer.Start)
	}
	health.SetReady(true)

	g.Go(func() error {
		<-gctx.Done()
		health.SetReady(false)
		logger.Info("shutting down HTTP servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	if err == nil {
		logger.Info("HTTP servers gracefully stopped")
	}
	return err
}
