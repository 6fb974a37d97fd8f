package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/presence-relay/internal/names"
	"github.com/Tyrowin/presence-relay/internal/presence"
	"github.com/Tyrowin/presence-relay/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	catalog, err := loadCatalog(cfg.NamesFile)
	if err != nil {
		return err
	}

	color.Green.Printf("Starting presence relay on %s ", cfg.Port)
	color.Gray.Printf("(%d names available)\n", catalog.Len())

	hub := presence.NewHub(names.NewPool(catalog, nil), log)
	go hub.Run()
	log.Info("Hub started and ready to manage WebSocket connections", "capacity", hub.Capacity())

	httpServer := server.CreateServer(cfg.Port, server.New(cfg, hub, log).Routes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		_ = hub.Shutdown(cfg.ShutdownTimeout)
		return err
	}

	shutdownErr := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log)
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn("Hub shutdown incomplete", "error", err)
	}
	log.Info("Program stopped cleanly")
	return shutdownErr
}

func loadCatalog(path string) (names.Catalog, error) {
	if path == "" {
		return names.DefaultCatalog(), nil
	}
	catalog, err := names.LoadCatalog(path)
	if err != nil {
		return names.Catalog{}, fmt.Errorf("name catalog: %w", err)
	}
	return catalog, nil
}
