package database

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var memSeq atomic.Int64

// OpenMemory opens a private, migrated in-memory sqlite database with
// foreign keys enforced. Intended for tests and local experiments.
func OpenMemory() (*gorm.DB, error) {
	dsn := sqliteDSN(fmt.Sprintf("file:ppms_mem_%d?mode=memory&cache=shared", memSeq.Add(1)))

	cfg := gormConfig()
	cfg.Logger = gormlogger.Discard
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps the shared in-memory database alive and serializes
	// transactions
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
