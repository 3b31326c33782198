package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/discord-modmail/modmail/internal/api/http"
	"github.com/discord-modmail/modmail/internal/api/http/handlers"
	"github.com/discord-modmail/modmail/internal/auth"
	"github.com/discord-modmail/modmail/internal/bot"
	"github.com/discord-modmail/modmail/internal/config"
	"github.com/discord-modmail/modmail/internal/discord"
	"github.com/discord-modmail/modmail/internal/extensions"
	"github.com/discord-modmail/modmail/internal/extensions/blocklist"
	"github.com/discord-modmail/modmail/internal/extensions/notify"
	"github.com/discord-modmail/modmail/internal/extensions/threads"
	"github.com/discord-modmail/modmail/internal/observability"
	"github.com/discord-modmail/modmail/internal/persistence"
	"github.com/discord-modmail/modmail/internal/repository"
	"github.com/discord-modmail/modmail/internal/service"
)

const (
	handlerTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config file")
	hashPassword := pflag.String("hash-password", "", "print a bcrypt hash for a dashboard password and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword, cfg.Auth.BcryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	mode, err := extensions.ParseMode(cfg.Bot.Mode)
	if err != nil {
		logger.Fatal("invalid bot mode", zap.String("mode", cfg.Bot.Mode), zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("tickets need postgres; set MODMAIL_POSTGRES_DSN")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	session, err := discord.New(cfg.Bot.Token, handlerTimeout, logger.Named("discord"))
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}

	modmail := bot.New(session, bot.Options{
		Mode:         mode,
		Disabled:     cfg.Extensions.Disabled,
		FailureEmoji: cfg.Emoji.Failure,
		Logger:       logger,
		Recorder:     metrics,
	})

	pool := pg.PoolHandle()
	relay := service.NewRelayService(service.RelayDependencies{
		TicketRepo:     repository.NewTicketRepository(pool),
		MessageRepo:    repository.NewMessageRepository(pool),
		AttachmentRepo: repository.NewAttachmentRepository(pool),
		Gateway:        session,
		Dispatcher:     modmail.Dispatcher(),
		Recorder:       metrics,
		Logger:         logger.Named("relay"),
		GuildID:        cfg.Bot.GuildID,
		RelayChannelID: cfg.Bot.RelayChannelID,
	})

	blocked := blocklist.NewStore(redis.Client, cfg.Bot.GuildID)
	err = modmail.Extensions().Add(
		threads.New(relay, session, threads.Config{
			Prefix:         cfg.Bot.Prefix,
			SuccessEmoji:   cfg.Emoji.Success,
			FailureEmoji:   cfg.Emoji.Failure,
			RelayChannelID: cfg.Bot.RelayChannelID,
		}, logger),
		blocklist.New(blocked, logger),
		notify.New(notify.NewSink(cfg.Notification.WebhookURL, cfg.Notification.WebhookTimeout(), logger.Named("webhook")), logger),
	)
	if err != nil {
		logger.Fatal("failed to register extensions", zap.Error(err))
	}

	if err := modmail.Start(ctx); err != nil {
		logger.Fatal("failed to start bot", zap.Error(err))
	}
	session.SetHandler(modmail)
	if err := session.Open(); err != nil {
		logger.Fatal("failed to open discord gateway", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	accounts, err := auth.NewAccounts(cfg.Auth.Accounts, tokens)
	if err != nil {
		logger.Fatal("invalid dashboard accounts", zap.Error(err))
	}
	if accounts.Len() == 0 {
		logger.Warn("no dashboard accounts configured; login is disabled")
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.Handler()
	}
	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.Dependency{Name: "postgres", Check: pg},
		handlers.Dependency{Name: "redis", Check: redis})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(accounts),
		Tickets:        handlers.NewTicketsHandler(relay),
		Extensions:     handlers.NewExtensionsHandler(modmail.Extensions()),
		Blocklist:      handlers.NewBlocklistHandler(blocked),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metricsHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("modmail running",
		zap.String("addr", cfg.App.Addr()),
		zap.String("mode", mode.String()))

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := session.Close(); err != nil {
		logger.Warn("closing discord session", zap.Error(err))
	}
	if err := modmail.Close(shutdownCtx); err != nil {
		logger.Warn("unloading extensions", zap.Error(err))
	}
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
