package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fiercekittenz/gifbot/internal/config"
	"github.com/fiercekittenz/gifbot/internal/coordination"
	"github.com/fiercekittenz/gifbot/internal/dispatch"
	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/library"
	"github.com/fiercekittenz/gifbot/internal/logging"
	"github.com/fiercekittenz/gifbot/internal/overlay"
	"github.com/fiercekittenz/gifbot/internal/scheduler"
	"github.com/fiercekittenz/gifbot/internal/server"
	"github.com/fiercekittenz/gifbot/internal/settings"
	"github.com/fiercekittenz/gifbot/internal/storage"
	"github.com/fiercekittenz/gifbot/internal/trigger"
	"github.com/fiercekittenz/gifbot/internal/twitch"
)

func setupConfig() *config.Config {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupStore picks the document backend: Postgres when DATABASE_URL is
// set, the local data directory otherwise. The second return value is nil
// for file-backed deployments.
func setupStore(cfg *config.Config) (domain.DocumentStore, *storage.PostgresStore) {
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		slog.Info("Using Postgres document store")
		return db, db
	}

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to create file store", "error", err)
		os.Exit(1)
	}
	slog.Info("Using file document store", "dir", cfg.DataDir)
	return store, nil
}

func setupRedis(ctx context.Context, redisURL string) *goredis.Client {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	store, db := setupStore(cfg)
	if db != nil {
		defer db.Close()
	}

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient = setupRedis(context.Background(), cfg.RedisURL)
		defer func() { _ = redisClient.Close() }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib := library.New(ctx, store)
	settingsMgr := settings.NewManager(ctx, store)
	led := ledger.New(clock, settingsMgr)

	// Platform collaborator is optional: without Twitch credentials,
	// follower-gated animations reject and chat text is skipped.
	var (
		follow domain.FollowChecker
		chat   domain.ChatSender
	)
	if cfg.TwitchEnabled() {
		client, err := twitch.NewClient(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.BroadcasterUserID, cfg.BotUserID)
		if err != nil {
			slog.Error("Failed to create Twitch client", "error", err)
			os.Exit(1)
		}
		follow = client
		chat = client
		slog.Info("Twitch platform client configured", "broadcaster_id", cfg.BroadcasterUserID)
	} else {
		slog.Info("Twitch credentials not set, follower checks and chat responses disabled")
	}

	hub := overlay.NewHub()

	// With Redis, play/stop frames fan out to peer instances; the listener
	// replays theirs into the local hub.
	var publisher domain.OverlayPublisher = hub
	if redisClient != nil {
		instance := uuid.New()
		publisher = coordination.NewPublisher(redisClient, hub, instance)
		listener := coordination.NewListener(redisClient, hub, instance)
		go listener.Start(ctx)
		slog.Info("Cross-instance coordination enabled", "instance", instance.String())
	}

	// One scheduler per overlay layer; the first layer is where chat and
	// alert triggers land.
	schedulers := make(map[string]*scheduler.Scheduler, len(cfg.Layers))
	for _, layer := range cfg.Layers {
		schedulers[layer] = scheduler.New(layer, clock, publisher, chat, settingsMgr, led, lib.Save)
		go schedulers[layer].Run(ctx)
	}
	baseLayer := cfg.Layers[0]

	resolver := trigger.NewResolver(led, settingsMgr, follow)
	alerts := trigger.NewAlertSelector()
	builder := trigger.NewBuilder(lib, settingsMgr, baseLayer)
	dispatcher := dispatch.New(lib, resolver, alerts, builder, schedulers[baseLayer], led)
	go dispatcher.Run(ctx)

	srv := server.NewServer(cfg, lib, settingsMgr, led, dispatcher, schedulers, hub, db, redisClient)

	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Stop the workers and wait for them to drain.
		cancel()
		<-dispatcher.Done()
		for _, sched := range schedulers {
			<-sched.Done()
		}
		hub.Stop()

		close(done)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
