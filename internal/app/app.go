// Package app wires storage, the API client and the views into one
// application object shared by the CLI commands and the REPL.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"LexAI/internal/admin"
	"LexAI/internal/api"
	"LexAI/internal/auth"
	"LexAI/internal/cache"
	"LexAI/internal/chat"
	"LexAI/internal/config"
	"LexAI/internal/prefs"
	"LexAI/internal/route"
	"LexAI/internal/similar"
	"LexAI/internal/storage"
	"LexAI/internal/telemetry"
)

// App holds the long-lived components of one run.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   storage.Store
	Auth    *auth.Store
	Client  *api.Client
	Cache   *cache.ChatCache
	History *route.History
	Prefs   *prefs.Prefs

	tracer  trace.Tracer
	meter   metric.Meter
	closers []func()
}

// Open initializes logging, telemetry and the SQLite store under the
// configured data directory.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir(), cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, meter, shutdown, err := telemetry.InitTelemetry(ctx, cfg.LogDir())
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	store, err := storage.OpenSQLite(cfg.StoragePath())
	if err != nil {
		shutdown()
		_ = closeLog()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	a := New(cfg, store, logger)
	a.tracer, a.meter = tracer, meter
	a.Client = a.newClient()
	a.Auth.SetClient(a.Client)
	a.closers = append(a.closers, func() { _ = closeLog() }, shutdown)

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}
	logger.Info("lexai started", "base_url", cfg.BaseURL, "chat_mode", cfg.Chat.Mode, "storage", cfg.StoragePath())
	return a, nil
}

// New builds an App over an existing store. Telemetry falls back to the
// global providers.
func New(cfg *config.Config, store storage.Store, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Cache:   cache.New(store, cache.KeysFor(cfg.Chat.Mode), logger),
		History: route.NewHistory(store, logger),
		Prefs:   prefs.New(store, logger),
	}
	a.Auth = auth.Open(store, nil, logger)
	a.Client = a.newClient()
	a.Auth.SetClient(a.Client)
	return a
}

func (a *App) newClient() *api.Client {
	return api.New(a.Config.BaseURL, a.Auth, api.Options{
		Timeout: a.Config.HTTP.Timeout.Duration,
		Logger:  a.Logger,
		Tracer:  a.tracer,
		Meter:   a.meter,
	})
}

// Conversation creates the chat view for this run.
func (a *App) Conversation(onReveal func(string)) *chat.Conversation {
	return chat.New(a.Client, a.Cache, chat.Options{
		Mode:           a.Config.Chat.Mode,
		RevealInterval: a.Config.Chat.RevealInterval.Duration,
		Navigator:      a.History,
		Logger:         a.Logger,
		Meter:          a.meter,
		OnReveal:       onReveal,
	})
}

// Users creates the admin user list.
func (a *App) Users() *admin.UserList {
	return admin.NewUserList(a.Client, a.Logger)
}

// Feedback creates the admin feedback list.
func (a *App) Feedback() *admin.FeedbackList {
	return admin.NewFeedbackList(a.Client, a.Logger)
}

// Similar creates the similar-cases view.
func (a *App) Similar() *similar.View {
	return similar.NewView(a.Client, a.Logger)
}

// Authorize applies the route guard for path against the current auth
// state.
func (a *App) Authorize(path string) route.Decision {
	r, ok := route.Lookup(path)
	if !ok {
		return route.Decision{Redirect: route.PathLanding}
	}
	return route.Guard(a.Auth.Get(), r)
}

// Close releases storage and flushes telemetry.
func (a *App) Close() error {
	err := a.Store.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	return err
}
