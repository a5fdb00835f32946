package app

import (
	"context"
	"fmt"

	"github.com/avellino/shopassist/internal/chat"
	"github.com/avellino/shopassist/internal/config"
	"github.com/avellino/shopassist/internal/httpapi"
	"github.com/avellino/shopassist/internal/observability"
	"github.com/avellino/shopassist/internal/storage"
	"github.com/avellino/shopassist/internal/store"
	"github.com/avellino/shopassist/internal/upload"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Chat    *chat.Service
	Guard   *chat.Guard
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	dialogueStore, err := store.NewStore(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("dialogue store init failed: %w", err)
	}

	adapter, err := chat.NewAdapter(chat.Config{
		Mode:    cfg.ChatAdapterMode,
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.ChatModel,
		Timeout: cfg.ChatUpstreamTimeout,
	})
	if err != nil {
		_ = dialogueStore.Close()
		return nil, fmt.Errorf("chat adapter init failed: %w", err)
	}

	backend, err := storage.NewBackend(cfg)
	if err != nil {
		_ = dialogueStore.Close()
		return nil, fmt.Errorf("storage backend init failed: %w", err)
	}

	guard := chat.NewGuard(cfg.SessionIdleTimeout)
	chatService := chat.NewService(dialogueStore, adapter, guard, metrics)
	gate := upload.NewGate(backend)
	api := httpapi.New(cfg, chatService, gate, metrics)

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Chat:    chatService,
		Guard:   guard,
		Metrics: metrics,
		Cleanup: dialogueStore.Close,
	}, nil
}
