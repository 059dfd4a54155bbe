package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yolodolo42/mockchat/internal/auth"
	"github.com/yolodolo42/mockchat/internal/chat"
	"github.com/yolodolo42/mockchat/internal/config"
	"github.com/yolodolo42/mockchat/internal/llm"
	"github.com/yolodolo42/mockchat/internal/session"
)

// app bundles what every chat command needs: config, logger, store and the
// chat service on top of the resolved provider.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *session.Store
	auth     *auth.Manager
	provider llm.Provider
	svc      *chat.Service
}

// providerFactory builds the provider for an app. Tests replace it.
var providerFactory = func(ctx context.Context, m *auth.Manager, cfg config.Config) (llm.Provider, error) {
	return m.ResolveProvider(ctx, cfg.LLM.Provider, cfg.LLM.Model)
}

// newApp loads the configuration and wires the chat service, logging to
// logOut or the command's stderr when logOut is nil. A missing provider is
// not fatal: the service answers with an error reply instead.
func newApp(ctx context.Context, cmd *cobra.Command, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logOut == nil {
		logOut = cmd.ErrOrStderr()
	}
	logger := cfg.NewLogger(logOut)

	store, err := session.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	manager, err := auth.NewManager(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		auth:   manager,
	}

	provider, err := providerFactory(ctx, manager, cfg)
	if err != nil {
		logger.Warn("no LLM provider available", "error", chat.RedactSecrets(err.Error()))
	} else {
		a.provider = llm.WithRetry(provider, cfg.RetryPolicy(logger))
		logger.Debug("provider ready", "provider", provider.ID(), "model", provider.DefaultModel())
	}

	a.svc = chat.NewService(store, a.provider,
		chat.WithLogger(logger),
		chat.WithProviderID(cfg.LLM.Provider),
		chat.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
		chat.WithSystemPrompt(cfg.LLM.SystemPrompt),
		chat.WithHistory(cfg.Chat.IncludeHistory),
		chat.WithTimeout(cfg.LLM.Timeout),
	)
	return a, nil
}

// Close releases the provider.
func (a *app) Close() {
	if a.provider == nil {
		return
	}
	if err := llm.Close(a.provider); err != nil {
		a.logger.Debug("provider close failed", "error", err)
	}
}

// openLogFile opens mockchat.log in dataDir for appending.
func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "mockchat.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
