package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lightbnb/lightbnb/internal/logging"
	"github.com/lightbnb/lightbnb/internal/mcp"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/config"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		mode    = flag.String("mode", "stdio", "Server mode: 'stdio' or 'http'")
		addr    = flag.String("addr", ":8000", "Listen address in http mode")
		seedURL = flag.String("seed", "", "Seed data for the memory database (file:///dir or s3://bucket/prefix)")
	)
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		// It's okay if .env doesn't exist
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	opts := []config.Option{config.WithEnv()}
	if *seedURL != "" {
		opts = append(opts, config.WithSeedURL(*seedURL))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol in stdio mode
	logCfg := cfg.LoggingConfig()
	logCfg.Output = os.Stderr
	logging.Init(logCfg)

	ctx := context.Background()
	svc, cleanup, err := cfg.BuildService(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to create service")
		os.Exit(1)
	}
	defer cleanup()

	s := server.NewMCPServer(
		"LightBnB MCP",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	handler := mcp.NewLightBnBHandler(svc)
	handler.RegisterTools(s)

	switch *mode {
	case "http":
		httpServer := server.NewStreamableHTTPServer(s)
		log.Info().Str("addr", *addr).Msg("MCP HTTP server listening")
		if err := httpServer.Start(*addr); err != nil {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	default:
		log.Info().Msg("starting MCP server in stdio mode")
		if err := server.ServeStdio(s); err != nil {
			log.Error().Err(err).Msg("stdio server stopped")
			os.Exit(1)
		}
	}
}
