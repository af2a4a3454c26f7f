package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duplex/internal/config"
	"duplex/internal/eventbus"
	"duplex/internal/filestore"
	"duplex/internal/httpapi"
	"duplex/internal/logging"
	"duplex/pkg/realtime"
	ws "duplex/pkg/transport/websocket"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	flag.Parse()

	cfg, err := config.Load(config.LoadOptions{Path: *configPath})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.NewInMemoryBus(1024)
	bus.Start(ctx)
	defer bus.Stop()

	bus.SubscribeAll(func(event *eventbus.Event) {
		logger.Debug("bus event",
			"event_type", string(event.Type),
			"source", event.Source,
			"metadata", event.Metadata,
		)
	})

	db, err := openBadger(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer db.Close()

	disk, err := filestore.NewDisk(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	files := filestore.NewService(
		filestore.NewStore(db, logger),
		disk,
		filestore.ServiceOptions{
			MaxFileSize: cfg.Uploads.MaxFileSize,
			Logger:      logger,
			EventBus:    bus,
		},
	)

	hub := realtime.NewHub(realtime.HubOptions{
		Logger:      logger,
		EventBus:    bus,
		SendTimeout: cfg.Realtime.SendTimeout,
	})

	dispatcher := realtime.NewDispatcher(hub, logger)

	clientOptions := ws.DefaultClientOptions()
	clientOptions.SendBufferSize = cfg.Realtime.SendBufferSize

	wsServer := ws.NewServer(
		ws.WithHub(hub),
		ws.WithDispatcher(dispatcher),
		ws.WithLogger(logger),
		ws.WithClientOptions(clientOptions),
	)

	router := httpapi.NewRouter(httpapi.RouterOptions{
		Hub:       hub,
		Websocket: wsServer,
		Files:     files,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}

func openBadger(cfg config.StorageConfig) (*badger.DB, error) {
	if cfg.InMemory {
		return badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	}
	return badger.Open(badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.ERROR))
}
