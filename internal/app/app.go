// Package app owns the lifecycle of one CyberGuard client: token storage,
// the authenticated HTTP client, repositories, the session and the services
// built on top of it.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cyberguard/internal/auth"
	"cyberguard/internal/cache"
	"cyberguard/internal/client"
	"cyberguard/internal/config"
	"cyberguard/internal/notify"
	"cyberguard/internal/repository"
	"cyberguard/internal/service"
)

// CacheNamespace prefixes every key the client keeps in Redis.
const CacheNamespace = "cyberguard:"

// App bundles the wired components.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Tokens auth.TokenStore
	Client *client.Client

	Session    service.Session
	Posts      service.PostService
	Reports    service.ReportService
	Dashboard  service.DashboardService
	Moderation service.ModerationService
	Chat       service.ChatService

	cache *cache.Client
}

// Option customises New.
type Option func(*options)

type options struct {
	clientOpts []client.Option
	tokens     auth.TokenStore
}

// WithClientOptions passes extra options to the HTTP client.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithTokenStore overrides the token store selected by the config.
func WithTokenStore(ts auth.TokenStore) Option {
	return func(o *options) { o.tokens = ts }
}

// New wires an App from cfg. A nil logger or notifier is replaced by a no-op.
func New(cfg *config.Config, logger *zap.Logger, notifier notify.Notifier, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger}

	tokens := o.tokens
	if tokens == nil {
		var err error
		tokens, err = a.tokenStore()
		if err != nil {
			return nil, err
		}
	}
	a.Tokens = tokens

	clientOpts := append([]client.Option{
		client.WithLogger(logger),
		client.WithTimeout(cfg.RequestTimeout),
	}, o.clientOpts...)
	c, err := client.New(cfg.APIBaseURL, tokens, clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.Client = c

	authRepo := repository.NewAuthRepository(c)
	postRepo := repository.NewPostRepository(c)
	reportRepo := repository.NewReportRepository(c)
	userRepo := repository.NewUserRepository(c)
	moderationRepo := repository.NewModerationRepository(c)
	chatRepo := repository.NewChatRepository(c)

	a.Session = service.NewSession(authRepo, tokens, notifier, logger)
	c.SetAuthLostHook(a.Session.HandleAuthLost)

	a.Posts = service.NewPostService(postRepo, a.Session, notifier, logger)
	a.Reports = service.NewReportService(reportRepo, a.Session, notifier, logger)
	a.Dashboard = service.NewDashboardService(reportRepo, postRepo, a.Session, notifier)
	a.Moderation = service.NewModerationService(postRepo, userRepo, moderationRepo, a.Session, notifier, logger)
	a.Chat = service.NewChatService(chatRepo, notifier)

	return a, nil
}

func (a *App) tokenStore() (auth.TokenStore, error) {
	switch a.Config.TokenStore {
	case config.StoreMemory:
		return auth.NewMemoryTokenStore(), nil
	case config.StoreFile:
		return auth.NewFileTokenStore(a.Config.TokenFile), nil
	case config.StoreRedis:
		a.cache = cache.New(a.Config.RedisAddr, a.Config.RedisPass, a.Config.RedisDB, CacheNamespace)
		return auth.NewRedisTokenStore(a.cache), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", a.Config.TokenStore)
	}
}

// Start restores the stored session. A rejected token leaves the app signed
// out and is not an error.
func (a *App) Start(ctx context.Context) error {
	if a.cache != nil {
		if err := a.cache.Ping(ctx); err != nil {
			a.Logger.Warn("redis unreachable, session will not persist", zap.Error(err))
		}
	}
	if err := a.Session.Init(ctx); err != nil {
		a.Logger.Info("stored session rejected", zap.Error(err))
	}
	return nil
}

// Close releases the Redis connection when one was opened.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
