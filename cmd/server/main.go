package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/slackbridge/common/id"
	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/common/otel"
	"basegraph.app/slackbridge/core/config"
	"basegraph.app/slackbridge/core/db"
	"basegraph.app/slackbridge/internal/http/middleware"
	httprouter "basegraph.app/slackbridge/internal/http/router"
	"basegraph.app/slackbridge/internal/queue"
	"basegraph.app/slackbridge/internal/service"
	"basegraph.app/slackbridge/internal/service/chat_platform"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "slackbridge server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	redisClient, err := db.NewRedis(ctx, cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	slackOpts := []slack.Option{}
	if cfg.Slack.SocketModeEnabled() {
		slackOpts = append(slackOpts, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	}
	slackClient := slack.New(cfg.Slack.BotToken, slackOpts...)

	identity, err := chat_platform.NewSlackChatPlatform(slackClient).Identity(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve slack bot identity", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "slack identity resolved", "bot_user_id", identity.UserID, "bot_id", identity.BotID)

	eventProducer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	defer eventProducer.Close()

	deduper := queue.NewRedisDeduper(redisClient, "slackbridge:event", cfg.Pipeline.DedupeTTL)
	services := service.NewServices(identity, deduper, eventProducer, slog.Default())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port, "events_api", cfg.Slack.EventsAPIEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	if cfg.Slack.SocketModeEnabled() {
		socketClient := socketmode.New(slackClient)
		listener := service.NewSocketListener(socketClient, socketClient.Events, services.EventIngest(), slog.Default())
		go func() {
			if err := listener.Run(listenCtx); err != nil {
				slog.ErrorContext(ctx, "socket mode listener stopped", "error", err)
				os.Exit(1)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	stopListening()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		SlackSigningSecret: cfg.Slack.SigningSecret,
	})

	return router
}

const banner = `
 ___  _    ___  ___  _  __ ___  ___  ___  ___   ___  ___ 
/ __|| |  /   \/ __|| |/ /| _ )| _ \|_ _||   \ / __|| __|
\__ \| |__| - | (__ | ' < | _ \|   / | | | |) | (_ || _| 
|___/|____|_|_|\___||_|\_\|___/|_|_\|___||___/ \___||___|  server
`
