package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"stocksentiment/internal/api"
	"stocksentiment/internal/config"
	"stocksentiment/internal/logging"
	"stocksentiment/pkg/sentiment"
)

var getppid = os.Getppid
var sleep = time.Sleep
var exit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], nil); err != nil {
		slog.Error("server failed", "err", err)
		stop()
		exit(1)
	}
}

// run starts the API server and blocks until ctx is done. ready, when not
// nil, receives the bound address once the listener is up.
func run(ctx context.Context, args []string, ready chan<- string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "", "Directory for the database and logs")
	port := fs.Int("port", 8000, "Port to run the server on")
	host := fs.String("host", "127.0.0.1", "Host to bind the server to")
	webDir := fs.String("web-dir", "", "Directory for SPA static files (optional)")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config.LoadEnv()
	if *dataDir != "" {
		config.SetRuntimeDataDir(*dataDir)
	}
	config.SetRuntimePort(*port)

	resolvedDataDir, err := config.GetDataDir()
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	level, _ := logging.ParseLevel(*logLevel)
	logger, writer, err := logging.NewLogger(logging.Options{
		Dir:       filepath.Join(resolvedDataDir, "logs"),
		Level:     level,
		Component: "server",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer writer.Close()

	cfg := config.LoadUserConfig()
	dbPath, err := config.GetDBPath()
	if err != nil {
		return fmt.Errorf("resolve db path: %w", err)
	}
	core, err := sentiment.OpenWithOptions(sentiment.Options{
		DBPath:         dbPath,
		Logger:         logger,
		APIKeys:        config.APIKey,
		RequestTimeout: config.RequestTimeout(cfg),
	})
	if err != nil {
		return fmt.Errorf("open core: %w", err)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Error("failed to close core", "err", err)
		}
	}()
	if err := applyConfiguredModel(core, cfg); err != nil {
		logger.Warn("ignoring model settings from config.json", "err", err)
	}

	if os.Getenv("STOCK_SENTIMENT_PARENT_WATCH") == "1" {
		go watchParent(logger)
	}

	handler := api.NewRouter(core, logger)
	if resolvedWebDir := resolveWebDir(*webDir); resolvedWebDir != "" {
		logger.Info("serving SPA", "web_dir", resolvedWebDir)
		handler = api.WithSPA(handler, resolvedWebDir)
	}
	handler = middleware.Compress(5)(handler)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Analysis streams stay open for the whole model call.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	logger.Info("server starting", "addr", listener.Addr().String(), "db_path", core.DBPath())
	if ready != nil {
		ready <- listener.Addr().String()
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	return nil
}

// applyConfiguredModel lets config.json pin the provider and model. Without
// a provider in the file the persisted settings are left alone.
func applyConfiguredModel(core *sentiment.Core, cfg config.UserConfig) error {
	if cfg.Provider == "" {
		return nil
	}
	_, err := core.SetModelSettings(sentiment.ModelSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	})
	return err
}

func watchParent(logger *slog.Logger) {
	for {
		sleep(1 * time.Second)
		if getppid() == 1 {
			logger.Info("parent process exited; shutting down")
			exit(0)
		}
	}
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"web/dist", "static", "../static"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	if exe, err := os.Executable(); err == nil {
		for _, candidate := range candidates {
			if path := filepath.Join(filepath.Dir(exe), candidate); dirExists(path) {
				return path
			}
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
