package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/bingo-backend/internal/audio"
	"github.com/rocketscienceinc/bingo-backend/internal/bingo"
	"github.com/rocketscienceinc/bingo-backend/internal/config"
	"github.com/rocketscienceinc/bingo-backend/internal/metrics"
	"github.com/rocketscienceinc/bingo-backend/internal/presenter"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
	"github.com/rocketscienceinc/bingo-backend/internal/repository/storage"
	"github.com/rocketscienceinc/bingo-backend/transport/rest"
	"github.com/rocketscienceinc/bingo-backend/transport/websocket"
	"github.com/rocketscienceinc/bingo-backend/web"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	snapshots, closeStore, err := openSnapshotStore(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			log.Error("could not close snapshot storage", "error", closeErr)
		}
	}()

	recorder := metrics.NewRecorder()
	hub := websocket.NewHub(logger)

	engine := bingo.NewEngine(logger, snapshots, bingo.WithListener(recorder))
	if err = engine.Open(ctx, conf.Game.TotalBalls); err != nil {
		return fmt.Errorf("could not open game: %w", err)
	}
	defer engine.Pause()

	player := audio.NewFilePlayer(audio.Cues{
		Dir:       conf.Audio.Dir,
		Ext:       conf.Audio.Ext,
		URLPrefix: conf.Audio.URLPrefix,
	})

	game := presenter.New(logger, engine, hub, player,
		presenter.WithSpeed(conf.Game.DefaultSpeed),
		presenter.WithFinishDelay(conf.Game.FinishDelay),
	)
	engine.Subscribe(game)
	game.Sync()

	go hub.Run(ctx)

	wsServer := websocket.New(logger, game, hub, recorder,
		websocket.WithRateLimit(conf.WebSocket.RateLimit, conf.WebSocket.RateBurst),
		websocket.WithMaxConnections(conf.WebSocket.MaxConnections),
	)

	router := rest.NewRouter(rest.Routes{
		Handlers:    rest.NewHandlers(ctx, logger, game),
		WebSocket:   wsServer.Handler(ctx),
		Metrics:     recorder.Handler(),
		Audio:       http.FileServer(http.Dir(conf.Audio.Dir)),
		AudioPrefix: conf.Audio.URLPrefix,
		UI:          web.Handler(),
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// openSnapshotStore connects the snapshot repository selected by snapshot.driver.
func openSnapshotStore(ctx context.Context, conf *config.Config) (repository.SnapshotRepository, func() error, error) {
	noop := func() error { return nil }

	switch conf.Snapshot.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewSnapshotRepository(redisStorage.Connection, conf.Snapshot.Key), redisStorage.Close, nil

	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Snapshot.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteSnapshotRepository(sqliteStorage.Connection, conf.Snapshot.Key), sqliteStorage.Close, nil

	case config.DriverFile:
		return repository.NewFileSnapshotRepository(conf.Snapshot.FilePath), noop, nil

	case config.DriverMemory:
		return repository.NewMemorySnapshotRepository(), noop, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, conf.Snapshot.Driver)
}
