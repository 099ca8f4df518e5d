package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slack-go/slack"

	"basegraph.app/slackbridge/common/llm"
	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/common/otel"
	"basegraph.app/slackbridge/core/config"
	"basegraph.app/slackbridge/core/db"
	"basegraph.app/slackbridge/internal/brain"
	"basegraph.app/slackbridge/internal/queue"
	"basegraph.app/slackbridge/internal/service/chat_platform"
	"basegraph.app/slackbridge/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "slackbridge worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	redisClient, err := db.NewRedis(ctx, cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer,
		DLQStream: cfg.Pipeline.RedisDLQStream,
		BatchSize: 1, // one conversation at a time
		Block:     5 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	completer, err := llm.NewAzureClient(llm.Config{
		Endpoint:   cfg.AzureOpenAI.Endpoint,
		Deployment: cfg.AzureOpenAI.Deployment,
		APIKey:     cfg.AzureOpenAI.APIKey,
		APIVersion: cfg.AzureOpenAI.APIVersion,
		MaxTokens:  cfg.AzureOpenAI.MaxTokens,
		Search: llm.SearchConfig{
			Endpoint:              cfg.AzureSearch.Endpoint,
			Key:                   cfg.AzureSearch.Key,
			Index:                 cfg.AzureSearch.Index,
			SemanticConfiguration: cfg.AzureSearch.SemanticConfiguration,
			InScope:               cfg.AzureSearch.InScope,
			TopNDocuments:         cfg.AzureSearch.TopNDocuments,
			Strictness:            cfg.AzureSearch.Strictness,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create completion client", "error", err)
		os.Exit(1)
	}

	platform := chat_platform.NewSlackChatPlatform(slack.New(cfg.Slack.BotToken))
	orchestrator := brain.NewOrchestrator(brain.OrchestratorConfig{
		SystemPrompt: cfg.Bot.SystemPrompt,
	}, platform, completer)

	w := worker.New(consumer, worker.NewProcessor(orchestrator), worker.Config{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop waits for the event in flight; a reply is never cut off mid-post.
	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case <-stopped:
		if err := <-errCh; err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ___  _    ___  ___  _  __ ___  ___  ___  ___   ___  ___ 
/ __|| |  /   \/ __|| |/ /| _ )| _ \|_ _||   \ / __|| __|
\__ \| |__| - | (__ | ' < | _ \|   / | | | |) | (_ || _| 
|___/|____|_|_|\___||_|\_\|___/|_|_\|___||___/ \___||___|  worker
`
