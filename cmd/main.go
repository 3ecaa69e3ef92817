// Package main is the entry point for the truncation engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/compresr/truncation-engine/external"
	"github.com/compresr/truncation-engine/internal/config"
	"github.com/compresr/truncation-engine/internal/engine"
	"github.com/compresr/truncation-engine/internal/monitoring"
	"github.com/compresr/truncation-engine/internal/server"
	"github.com/compresr/truncation-engine/internal/store"
)

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "truncation-engine", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runServer(os.Args[2:])
			return
		case "watch":
			runWatch(os.Args[2:])
			return
		case "version", "-v", "--version":
			PrintVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	printHelp()
}

// resolveServeConfig resolves the config for the serve command.
// Checks: user flag -> filesystem locations -> embedded default.
// Returns raw bytes and source description.
func resolveServeConfig(userConfig string) ([]byte, string, error) {
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "truncation-engine", "config.yaml"),
		)
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	if data, err := getEmbeddedConfig("default"); err == nil {
		return data, "(embedded) default.yaml", nil
	}

	return nil, "", fmt.Errorf("no config file found. Specify --config path")
}

// runServer starts the engine HTTP server.
func runServer(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args) // ExitOnError handles errors

	setupLogging(*debug)

	configData, configSource, err := resolveServeConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("No config file found. Specify --config path")
	}

	log.Info().
		Str("version", Version).
		Str("config", configSource).
		Msg("Truncation engine starting")

	cfg, err := config.LoadFromBytes(configData)
	if err != nil {
		log.Fatal().Err(err).Str("config", configSource).Msg("failed to load configuration")
	}

	monitoring.Global(cfg.Logging)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cache, err := newStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open analysis cache")
	}
	defer cache.Close()

	var analyzer engine.Analyzer
	if cfg.Upstream.Enabled {
		analyzer = external.NewClient(cfg.Upstream.Endpoint, cfg.Upstream.Timeout)
		log.Info().Str("endpoint", cfg.Upstream.Endpoint).Msg("external analyzer configured")
	}

	eng := engine.New(engine.Config{
		MaxLength:  cfg.Engine.MaxLength,
		WindowSize: cfg.Engine.WindowSize,
		MaxChunks:  cfg.Engine.MaxChunks,
	}, analyzer, cache, nil, nil)

	srv := server.New(cfg, eng)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		if err.Error() != "http: Server closed" {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	log.Info().Msg("Truncation engine stopped")
}

// newStore opens the configured cache backend.
func newStore(cfg config.StoreConfig) (store.Store, error) {
	if cfg.Type == "sqlite" {
		return store.NewSQLiteStore(cfg.Path, cfg.TTL)
	}
	return store.NewMemoryStore(cfg.TTL), nil
}

// setupLogging configures zerolog. Interactive terminals get pretty
// console output; everything else gets JSON.
func setupLogging(debug bool) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// printHelp prints usage information
func printHelp() {
	fmt.Println("Truncation Engine - hierarchical text truncation with phased simulation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  truncation-engine [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve        Start the engine HTTP server")
	fmt.Println("  watch        Animate a truncation in the terminal")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Server Options:")
	fmt.Println("  truncation-engine serve [--config FILE] [--debug]")
	fmt.Println()
	fmt.Println("Watch Options:")
	fmt.Println("  truncation-engine watch [--file FILE] [--method hierarchical_window|semantic_chunk]")
	fmt.Println("                          [--max-length N] [--window N] [--speed MS]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  truncation-engine serve --debug")
	fmt.Println("  truncation-engine watch --file article.txt --max-length 300")
}
