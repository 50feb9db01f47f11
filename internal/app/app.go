package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/http"
	"github.com/dpp-pk/constructor-backend/internal/observability"
	"github.com/dpp-pk/constructor-backend/internal/platform/envutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
	done         chan struct{}
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	LoadDotEnv(log)

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	a, err := Assemble(log, cfg, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}
	a.otelShutdown = shutdown
	return a, nil
}

// Assemble builds repos, services and the router on top of ready clients.
func Assemble(log *logger.Logger, cfg Config, clients Clients) (*App, error) {
	reposet := wireRepos(clients.DB, log)
	serviceset, err := wireServices(clients.DB, log, cfg, reposet, clients)
	if err != nil {
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, serviceset, clients)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware)

	return &App{
		Log:      log,
		Router:   router,
		Cfg:      cfg,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

// Start launches background maintenance: expired refresh tokens are purged periodically.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	tick := a.Cfg.SessionPurgeTick
	if tick <= 0 {
		tick = time.Hour
	}
	go func() {
		defer close(a.done)
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := a.Services.Auth.PurgeExpired(ctx)
				if err != nil {
					a.Log.Warn("purge expired sessions failed", "error", err)
					continue
				}
				if n > 0 {
					a.Log.Info("purged expired sessions", "count", n)
				}
			}
		}
	}()
}

func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &http.Server{Engine: a.Router}
	a.Log.Info("HTTP server listening", "addr", addr)
	return srv.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		<-a.done
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
