package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/db"
	httpsrv "github.com/aurahq/aura-backend/internal/http"
	httpH "github.com/aurahq/aura-backend/internal/http/handlers"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	dbService, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet)

	if cfg.SeedPath != "" {
		if err := SeedDefaults(context.Background(), theDB, log, reposet, cfg.SeedPath); err != nil {
			log.Warn("seeding defaults failed", "path", cfg.SeedPath, "error", err)
		}
	}

	router := httpsrv.NewRouter(httpsrv.RouterConfig{
		Log:           log,
		ScoreHandler:  httpH.NewScoreHandler(serviceset.Score),
		EventHandler:  httpH.NewEventHandler(serviceset.Event),
		JobHandler:    httpH.NewJobHandler(serviceset.Job),
		AdminHandler:  httpH.NewAdminHandler(serviceset.Dispatcher, serviceset.Worker),
		HealthHandler: httpH.NewHealthHandler(),
	})

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

// Start launches the background dispatch and worker loops.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.Services.Dispatcher.Start(ctx, a.Cfg.DispatchInterval)
	go a.Services.Worker.Start(ctx, a.Cfg.WorkerInterval, a.Cfg.WorkerBatchSize)
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
	if a.Services.LiveCache != nil {
		_ = a.Services.LiveCache.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
