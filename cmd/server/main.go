package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"searchlens-mcp-server/internal/config"
	"searchlens-mcp-server/internal/gsc"
	mcpserver "searchlens-mcp-server/internal/mcp"
)

func main() {
	configPath := flag.String("config", "", "Path to an explicit SearchLens config file")
	workspaceDir := flag.String("workspace-dir", "", "Workspace root instead of walking up from cwd")
	noWorkspace := flag.Bool("no-workspace", false, "Skip workspace discovery")
	ssePort := flag.Int("sse-port", 0, "Optional SSE port override (falls back to config)")
	flag.Parse()

	// Local development convenience; missing .env files are not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.LoadWithWorkspace(*configPath, config.WorkspaceOptions{
		Disable:     *noWorkspace,
		ExplicitDir: *workspaceDir,
	})
	if err != nil {
		// Before we can redirect logs, write to stderr as last resort
		log.Fatalf("failed to load config: %v", err)
	}
	if *ssePort != 0 {
		cfg.MCP.SSEPort = *ssePort
	}

	// Redirect logging to file for stdio mode (stderr interferes with MCP protocol)
	if cfg.MCP.SSEPort == 0 && cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		} else {
			// If we can't open log file, disable logging to avoid stderr pollution
			log.SetOutput(io.Discard)
		}
	}

	client, err := gsc.NewClient(ctx, cfg.GSC.CredentialsPath())
	if err != nil {
		log.Fatalf("failed to initialize Search Console client: %v", err)
	}

	server, err := mcpserver.NewServer(cfg, client)
	if err != nil {
		log.Fatalf("failed to initialize MCP server: %v", err)
	}

	var startErr error
	if cfg.MCP.SSEPort > 0 {
		log.Printf("starting SearchLens MCP SSE server on port %d", cfg.MCP.SSEPort)
		startErr = server.StartSSE(ctx, cfg.MCP.SSEPort)
	} else {
		log.Printf("starting SearchLens MCP stdio server")
		startErr = server.Start(ctx)
	}

	if startErr != nil && !errors.Is(startErr, context.Canceled) {
		log.Fatalf("server exited with error: %v", startErr)
	}
}
