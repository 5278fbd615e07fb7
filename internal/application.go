package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HarshilD05/Super-XO/internal/bot"
	"github.com/HarshilD05/Super-XO/internal/config"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/repository"
	"github.com/HarshilD05/Super-XO/internal/repository/storage"
	"github.com/HarshilD05/Super-XO/internal/service"
	"github.com/HarshilD05/Super-XO/internal/usecase"
	"github.com/HarshilD05/Super-XO/internal/valuetable"
	"github.com/HarshilD05/Super-XO/transport/rest"
	"github.com/HarshilD05/Super-XO/transport/websocket"
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

	defaultDifficulty, err := entity.ParseDifficulty(conf.Bot.DefaultDifficulty)
	if err != nil {
		return fmt.Errorf("invalid bot config: %w", err)
	}

	table, err := loadValueTable(log, conf.ValueTablePath)
	if err != nil {
		return err
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	seed := time.Now().UnixNano()
	engine := bot.NewEngine(rand.New(rand.NewSource(seed)), table, conf.Bot.StrictSnapshots) //nolint: gosec // it's ok

	playerRepo := repository.NewPlayerRepository(redisStorage, conf.Session.TTL)
	gameRepo := repository.NewGameRepository(redisStorage, conf.Session.TTL)

	gameManager := usecase.NewGameManager(
		logger,
		service.NewPlayerService(playerRepo, defaultDifficulty),
		service.NewGameService(gameRepo),
		service.NewBotService(logger, engine),
		rand.New(rand.NewSource(seed+1)), //nolint: gosec // it's ok
		conf.Session.TTL,
	)

	group, groupCtx := errgroup.WithContext(ctx)

	// run HTTP server
	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(logger, rest.NewHandlers(logger, gameManager, table))
		if httpErr := rest.Start(groupCtx, conf.HTTPPort, router); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	// run Websocket server
	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager, conf.Bot.ThinkDelay, conf.AllowedOrigins)
		if wsErr := wsServer.Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	// evict sessions whose stored copy expired
	if conf.Session.TTL > 0 && conf.Session.SweepInterval > 0 {
		group.Go(func() error {
			return gameManager.RunSweeper(groupCtx, conf.Session.SweepInterval)
		})
	}

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// loadValueTable reads the game tree file, or solves the game when no file
// is configured.
func loadValueTable(log *slog.Logger, path string) (*valuetable.Table, error) {
	if path == "" {
		table := valuetable.Default()
		log.Info("value table built in memory", "positions", table.Len())

		return table, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open value table: %w", err)
	}
	defer file.Close()

	table, err := valuetable.Load(file)
	if err != nil {
		return nil, fmt.Errorf("could not load value table %s: %w", path, err)
	}

	log.Info("value table loaded", "path", path, "positions", table.Len())

	return table, nil
}
