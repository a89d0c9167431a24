package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	subscribernats "github.com/arthurdotwork/livechat/internal/adapters/primary/nats"
	subscriberredis "github.com/arthurdotwork/livechat/internal/adapters/primary/redis"
	"github.com/arthurdotwork/livechat/internal/adapters/primary/rest"
	"github.com/arthurdotwork/livechat/internal/adapters/primary/websocket"
	"github.com/arthurdotwork/livechat/internal/adapters/secondary/broadcaster"
	"github.com/arthurdotwork/livechat/internal/adapters/secondary/channel"
	"github.com/arthurdotwork/livechat/internal/adapters/secondary/store"
	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/infrastructure/config"
	"github.com/arthurdotwork/livechat/internal/infrastructure/health"
	"github.com/arthurdotwork/livechat/internal/infrastructure/log"
	"github.com/arthurdotwork/livechat/internal/infrastructure/nats"
	"github.com/arthurdotwork/livechat/internal/infrastructure/redis"
	"github.com/arthurdotwork/livechat/internal/infrastructure/runner"
	"github.com/spf13/cobra"
)

type subscribeFunc func(ctx context.Context, router *domain.Router) error

func Server(ctx context.Context, cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	log.Config(ctx, cfg.LogLevel)

	var redisClient *redis.Client
	if cfg.StoreDriver == "redis" || cfg.RelayDriver == "redis" {
		redisClient, err = redis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis.Connect: %w", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	chatStore, closeStore, err := openStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStore()

	presence := domain.NewPresenceBroadcaster(chatStore)
	registry := domain.NewRegistry(presence)

	opts := []domain.RouterOption{domain.WithEchoToSender(cfg.EchoToSender)}

	relay, subscribe, closeRelay, err := openRelay(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeRelay()

	if relay != nil {
		opts = append(opts, domain.WithRelay(cfg.NodeID, relay))
	}

	router := domain.NewRouter(registry, opts...)
	chatService := domain.NewChatService(chatStore, registry, router, domain.NewFrameDecoder(cfg.MaxContentLength))
	reaper := domain.NewReaper(registry, cfg.IdleTimeout, cfg.SweepInterval)

	live := websocket.NewHandler(chatService, websocket.Config{
		IdentityHeader: cfg.IdentityHeader,
		IdleTimeout:    cfg.IdleTimeout,
		MaxFrameSize:   cfg.MaxFrameSize(),
		Channel: channel.Config{
			BufferSize:   cfg.ConnectionBufferSize,
			WriteTimeout: cfg.WriteTimeout,
			PingInterval: cfg.PingInterval,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rest.NewRouter(rest.NewJSONHandler(chatService), live, cfg.IdentityHeader),
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthServer := health.NewServer("livechat")

	r := runner.New(ctx)

	r.Go("http", func(ctx context.Context) error {
		errCh := make(chan error, 1)

		go func() {
			slog.DebugContext(ctx, "starting server", "address", cfg.HTTPAddr)

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("srv.ListenAndServe: %w", err)
				return
			}

			errCh <- nil
		}()

		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "initiating server shutdown")
		case err := <-errCh:
			return err
		}

		healthServer.SetServing(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := chatService.Close(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "error closing chat service", "error", err)
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("srv.Shutdown: %w", err)
		}

		return nil
	})

	r.Go("health", func(ctx context.Context) error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}

		return healthServer.Serve(ctx, lis)
	})

	r.Go("presence", func(ctx context.Context) error {
		return presence.Run(ctx, router)
	})

	r.Go("reaper", reaper.Run)

	if subscribe != nil {
		r.Go("relay", func(ctx context.Context) error {
			return subscribe(ctx, router)
		})
	}

	healthServer.SetServing(true)
	slog.InfoContext(ctx, "server ready",
		"http_addr", cfg.HTTPAddr,
		"grpc_addr", cfg.GRPCAddr,
		"store", cfg.StoreDriver,
		"relay", cfg.RelayDriver,
		"node_id", cfg.NodeID)

	if err := r.Wait(); err != nil {
		return fmt.Errorf("runner.Wait: %w", err)
	}

	slog.InfoContext(ctx, "server stopped")
	return nil
}

func openStore(cfg config.Config, redisClient *redis.Client) (domain.Store, func(), error) {
	switch cfg.StoreDriver {
	case "redis":
		return store.NewRedisStore(redisClient), func() {}, nil
	case "badger":
		db, err := store.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("store.OpenBadger: %w", err)
		}

		return store.NewBadgerStore(db), func() { _ = db.Close() }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func openRelay(cfg config.Config, redisClient *redis.Client) (domain.Relay, subscribeFunc, func(), error) {
	switch cfg.RelayDriver {
	case "redis":
		subscribe := func(ctx context.Context, router *domain.Router) error {
			return subscriberredis.NewSubscriber(redisClient, router).Subscribe(ctx, cfg.RelayChannel)
		}

		return broadcaster.NewRedisRelay(redisClient, cfg.RelayChannel), subscribe, func() {}, nil
	case "nats":
		conn, err := nats.Connect(cfg.NatsURL, "livechat-"+cfg.NodeID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("nats.Connect: %w", err)
		}

		subscribe := func(ctx context.Context, router *domain.Router) error {
			return subscribernats.NewSubscriber(conn, router).Subscribe(ctx, cfg.RelayChannel)
		}

		return broadcaster.NewNatsRelay(conn, cfg.RelayChannel), subscribe, conn.Close, nil
	default:
		return nil, nil, func() {}, nil
	}
}
