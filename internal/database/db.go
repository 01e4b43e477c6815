package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ppms/internal/config"
	"ppms/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxAttempts  = 10
	attemptDelay = 2 * time.Second

	sqliteForeignKeys = "_pragma=foreign_keys(1)"
)

// Open connects to the configured store, retrying while it comes up.
func Open(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	for i := 1; i <= maxAttempts; i++ {
		logger.Info("connecting to database",
			zap.String("driver", cfg.DBDriver),
			zap.Int("attempt", i),
			zap.Int("max_attempts", maxAttempts),
		)

		db, err = gorm.Open(dialector(cfg.DBDriver, cfg.DBDSN), gormConfig())
		if err == nil {
			logger.Info("connected to database")
			return db, nil
		}

		logger.Warn("failed to connect to database", zap.Error(err))
		if i < maxAttempts {
			time.Sleep(attemptDelay)
		}
	}

	return nil, fmt.Errorf("connect to database after %d attempts: %w", maxAttempts, err)
}

func dialector(driver, dsn string) gorm.Dialector {
	if driver == "sqlite" {
		return sqlite.Open(sqliteDSN(dsn))
	}
	return postgres.Open(dsn)
}

// sqliteDSN turns on foreign key enforcement for every pooled connection
// unless the DSN already sets it.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqliteForeignKeys
}

// WithTimeout bounds one store operation. A non-positive timeout only adds
// cancellation.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.WorkOrder{},
		&models.CuttingItem{},
		&models.BalanceOrder{},
		&models.ProductionRecord{},
		&models.DailyTarget{},
		&models.DispatchRecord{},
		&models.AuditEntry{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
