package service

import (
	"context"
	"time"

	"ppms/internal/database"
	"ppms/internal/models"

	"gorm.io/gorm"
)

// Option is an id/label pair for select inputs.
type Option struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// LookupService serves the distinct values behind filter and form inputs.
type LookupService struct {
	db      *gorm.DB
	timeout time.Duration
}

func (s *LookupService) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func (s *LookupService) Projects(ctx context.Context) ([]Option, error) {
	out := []Option{}
	db, cancel := s.conn(ctx)
	defer cancel()
	err := db.Model(&models.Project{}).
		Select("id, name AS label").
		Order("name").
		Scan(&out).Error
	return out, database.Classify(err)
}

func (s *LookupService) Users(ctx context.Context) ([]Option, error) {
	out := []Option{}
	db, cancel := s.conn(ctx)
	defer cancel()
	err := db.Model(&models.User{}).
		Select("id, username AS label").
		Order("username").
		Scan(&out).Error
	return out, database.Classify(err)
}

func (s *LookupService) distinct(ctx context.Context, model any, column string) ([]string, error) {
	out := []string{}
	db, cancel := s.conn(ctx)
	defer cancel()
	err := db.Model(model).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Distinct(column).
		Order(column).
		Pluck(column, &out).Error
	return out, database.Classify(err)
}

func (s *LookupService) Clients(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, &models.Project{}, "client")
}

func (s *LookupService) Colors(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, &models.CuttingItem{}, "color")
}

func (s *LookupService) Machines(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, &models.ProductionRecord{}, "machine_used")
}
