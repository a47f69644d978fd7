package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/lexgraph-mcp/prompts"
	"github.com/athapong/lexgraph-mcp/services"
	"github.com/athapong/lexgraph-mcp/tools"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	enableSSE := flag.Bool("sse", false, "Enable SSE server")
	sseAddr := flag.String("sse-addr", ":8080", "Address for SSE server to listen on")
	sseBasePath := flag.String("sse-base-path", "/mcp", "Base path for SSE endpoints")
	metricsAddr := flag.String("metrics-addr", "", "Address for the Prometheus /metrics endpoint (defaults to METRICS_ADDR, disabled when empty)")
	flag.Parse()

	// stdout carries the stdio transport, so logs go to stderr
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	if err := godotenv.Load(*envFile); err != nil {
		logger.Warnf("Error loading env file %s: %v", *envFile, err)
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"lexgraph-mcp",
		"1.0.0",
		server.WithLogging(),
		server.WithPromptCapabilities(true),
		server.WithToolCapabilities(true),
	)

	tools.RegisterToolManagerTool(mcpServer)

	enableTools := strings.Split(os.Getenv("ENABLE_TOOLS"), ",")
	allToolsEnabled := len(enableTools) == 1 && enableTools[0] == ""

	isEnabled := func(toolName string) bool {
		return allToolsEnabled || slices.Contains(enableTools, toolName)
	}

	if isEnabled("knowledge_graph") {
		tools.RegisterKnowledgeGraphTools(mcpServer)
	}

	if isEnabled("analysis") {
		tools.RegisterAnalysisTools(mcpServer)
	}

	if isEnabled("literature") {
		tools.RegisterLiteratureTool(mcpServer)
	}

	if isEnabled("pipeline") {
		tools.RegisterPipelineTool(mcpServer)
	}

	if isEnabled("fetch") {
		tools.RegisterFetchTool(mcpServer)
	}

	prompts.RegisterLegalPrompts(mcpServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr := firstNonEmpty(*metricsAddr, os.Getenv("METRICS_ADDR")); addr != "" {
		go serveMetrics(ctx, addr, logger)
	}

	defer closeNeo4j(logger)

	// Check if SSE server should be enabled
	if *enableSSE || os.Getenv("ENABLE_SSE") == "true" {
		sseServer := server.NewSSEServer(
			mcpServer,
			server.WithBasePath(*sseBasePath),
			server.WithKeepAlive(true),
		)

		go func() {
			logger.Infof("Starting SSE server on %s with base path %s", *sseAddr, *sseBasePath)
			if err := sseServer.Start(*sseAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("Failed to start SSE server: %v", err)
			}
		}()

		<-ctx.Done()
		logger.Info("Received shutdown signal, shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Error during SSE server shutdown: %v", err)
		}
		logger.Info("SSE server shutdown complete")
	} else {
		if err := server.ServeStdio(mcpServer); err != nil {
			panic(fmt.Sprintf("Server error: %v", err))
		}
	}
}

// serveMetrics exposes /metrics and refreshes the system gauges until ctx ends.
func serveMetrics(ctx context.Context, addr string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			metrics.UpdateSystemMetrics()
			select {
			case <-ctx.Done():
				_ = srv.Close()
				return
			case <-ticker.C:
			}
		}
	}()

	logger.Infof("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Metrics server failed: %v", err)
	}
}

// closeNeo4j releases the driver if a knowledge_graph_export call opened one.
func closeNeo4j(logger *logrus.Logger) {
	if err := services.CloseNeo4j(); err != nil {
		logger.Warnf("Error closing Neo4j driver: %v", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
