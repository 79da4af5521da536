package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/evarahealth/clinic-backend/internal/data/db"
	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/realtime"
	"github.com/evarahealth/clinic-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    repos.Set
	Services Services
	SSEHub   *realtime.SSEHub

	sseBus bus.SSEBus
	cancel context.CancelFunc
}

func New() (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := realtime.NewSSEHub(log)
	reposet := repos.NewSet(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet, hub)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		SSEHub:   hub,
	}, nil
}

// Start brings up background plumbing: the optional Redis fanout that carries
// SSE messages across replicas when REDIS_ADDR is set.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	sseBus, err := bus.NewSSEBus(a.Log)
	if err != nil {
		a.Log.Info("SSE fanout disabled", "reason", err.Error())
		return
	}
	if err := sseBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		a.Log.Warn("SSE fanout forwarder failed to start", "error", err)
		_ = sseBus.Close()
		return
	}
	a.sseBus = sseBus
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.sseBus != nil {
		_ = a.sseBus.Close()
		a.sseBus = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
