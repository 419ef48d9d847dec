package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "BreadthLab/internal/domain/repository"
	"BreadthLab/internal/scheduler"
	"BreadthLab/internal/usecase"
	"BreadthLab/pkg/cache"
	"BreadthLab/pkg/config"
	xhttp "BreadthLab/pkg/http"
	applogger "BreadthLab/pkg/logger"
)

const startupRefreshTimeout = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	sched      *scheduler.Scheduler
	refresher  *usecase.RefreshUseCase
	panels     domrepo.PanelStore
	snapshots  domrepo.SnapshotStore
	publisher  domrepo.Publisher
	cache      cache.Service
	httpServer *xhttp.Server

	schedRunning bool
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	sched *scheduler.Scheduler,
	refresher *usecase.RefreshUseCase,
	panels domrepo.PanelStore,
	snapshots domrepo.SnapshotStore,
	publisher domrepo.Publisher,
	c cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		sched:     sched,
		refresher: refresher,
		panels:    panels,
		snapshots: snapshots,
		publisher: publisher,
		cache:     c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if a.cfg.Scheduler.Enabled {
		if err := a.sched.Register(a.cfg.Scheduler.Spec); err != nil {
			return err
		}
		a.sched.Start()
		a.schedRunning = true
	}

	if a.cfg.Scheduler.RunOnStart {
		go a.initialRefresh()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("index", a.cfg.Breadth.Index),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) initialRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), startupRefreshTimeout)
	defer cancel()
	if err := a.refresher.Refresh(ctx); err != nil {
		a.l.Error("startup refresh failed", applogger.Error(err))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if a.schedRunning {
		a.sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			a.l.Warn("snapshot store close error", applogger.Error(err))
		}
	}
	if a.panels != nil {
		if err := a.panels.Close(); err != nil {
			a.l.Warn("panel store close error", applogger.Error(err))
		}
	}
	switch c := a.cache.(type) {
	case *cache.MemoryCache:
		c.Close()
	case *cache.LayeredCache:
		if err := c.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
