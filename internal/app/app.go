// Package app wires the store, the audit log and the services from
// configuration. Both the server and the admin CLI start here.
package app

import (
	"context"

	"ppms/internal/audit"
	"ppms/internal/auth"
	"ppms/internal/config"
	"ppms/internal/database"
	"ppms/internal/handlers"
	"ppms/internal/lifecycle"
	"ppms/internal/server"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Audit    *audit.Log
	Services *service.Services
	Users    *auth.Store
}

// Open connects to the store and migrates it.
func Open(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return New(cfg, logger, db), nil
}

// New builds the application over an already migrated store.
func New(cfg *config.Config, logger *zap.Logger, db *gorm.DB) *App {
	log := audit.New(db, cfg.AuditQueryCap, cfg.StatementTimeout)
	deps := lifecycle.Deps{DB: db, Audit: log, Timeout: cfg.StatementTimeout, Logger: logger}
	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Audit:    log,
		Services: service.New(deps, nil),
		Users:    auth.New(deps, 0),
	}
}

// Bootstrap creates the configured admin when the store has none. Without
// ADMIN_PASSWORD a random one is generated and logged once.
func (a *App) Bootstrap(ctx context.Context) error {
	password := a.Config.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}

	created, err := a.Users.EnsureAdmin(ctx, a.Config.AdminUsername, password)
	if err != nil {
		return err
	}
	if created && generated {
		a.Logger.Warn("generated password for default admin, change it after signing in",
			zap.String("username", a.Config.AdminUsername),
			zap.String("password", password),
		)
	}
	return nil
}

func (a *App) Router() *gin.Engine {
	h := handlers.New(a.Services, a.Users, a.Audit, a.Logger)
	return server.NewRouter(server.Deps{Config: a.Config, DB: a.DB, Logger: a.Logger, Handler: h})
}

// Ping checks the store connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return database.Classify(sqlDB.PingContext(ctx))
}

func (a *App) Close() {
	database.Close(a.DB)
}
