// Package lifecycle runs every entity mutation through one audited protocol:
// load the current row, apply the new state, write it conditionally on the
// version read, and log the field-level differences in the same transaction.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/audit"
	"ppms/internal/database"
	"ppms/internal/metrics"
	"ppms/internal/models"
	"ppms/internal/query"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Schema describes how one entity is audited and which derived fields it
// maintains. The hooks run inside the transaction and may modify row.
type Schema[T any] struct {
	Table  string
	Fields func(*T) []audit.Field

	BeforeCreate func(tx *gorm.DB, row *T) error
	BeforeUpdate func(tx *gorm.DB, old, row *T) error
	BeforeDelete func(tx *gorm.DB, row *T) error
}

// Deps are shared by every repository.
type Deps struct {
	DB      *gorm.DB
	Audit   *audit.Log
	Timeout time.Duration
	Logger  *zap.Logger
}

type Repository[T any, P interface {
	*T
	models.Record
}] struct {
	deps   Deps
	schema Schema[T]
}

func New[T any, P interface {
	*T
	models.Record
}](deps Deps, schema Schema[T]) *Repository[T, P] {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Repository[T, P]{deps: deps, schema: schema}
}

func (r *Repository[T, P]) Table() string { return r.schema.Table }

// DB returns a handle for read-only queries, bound to ctx under the statement
// timeout. The caller must call cancel once its queries are done.
func (r *Repository[T, P]) DB(ctx context.Context) (db *gorm.DB, cancel context.CancelFunc) {
	ctx, cancel = r.withTimeout(ctx)
	return r.deps.DB.WithContext(ctx), cancel
}

func (r *Repository[T, P]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return database.WithTimeout(ctx, r.deps.Timeout)
}

func (r *Repository[T, P]) Get(ctx context.Context, id uint, preload ...string) (*T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	q := r.deps.DB.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	row := new(T)
	if err := q.First(row, id).Error; err != nil {
		return nil, r.fail("get", id, err)
	}
	return row, nil
}

// List runs the scopes with the row cap applied last.
func (r *Repository[T, P]) List(ctx context.Context, scopes ...query.Scope) ([]T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows := []T{}
	err := r.deps.DB.WithContext(ctx).
		Model(new(T)).
		Scopes(scopes...).
		Scopes(query.Cap(query.MaxRows)).
		Find(&rows).Error
	if err != nil {
		return nil, r.fail("list", 0, err)
	}
	return rows, nil
}

func (r *Repository[T, P]) Count(ctx context.Context, scopes ...query.Scope) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.deps.DB.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, r.fail("count", 0, err)
	}
	return n, nil
}

// Create inserts row and records a CREATE entry.
func (r *Repository[T, P]) Create(ctx context.Context, row *T, actor *uint) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	meta := P(row).Meta()
	err := r.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta.ID = 0
		meta.Version = 1
		meta.CreatedBy = actor
		if r.schema.BeforeCreate != nil {
			if err := r.schema.BeforeCreate(tx, row); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			return err
		}
		return r.deps.Audit.RecordCreation(tx, r.schema.Table, meta.ID, actor)
	})
	if err != nil {
		return r.fail("create", meta.ID, err)
	}

	metrics.ObserveMutation(r.schema.Table, string(models.AuditCreate), 1)
	return nil
}

// Update replaces every field of record id with row. A non-zero row version
// must match the stored one.
func (r *Repository[T, P]) Update(ctx context.Context, id uint, row *T, actor *uint) error {
	expected := P(row).Meta().Version
	_, err := r.mutate(ctx, id, actor, func(current *T) (*T, error) {
		if expected != 0 && expected != P(current).Meta().Version {
			return nil, apperr.Conflict("%s #%d was changed by someone else, reload and try again", r.schema.Table, id)
		}
		return row, nil
	})
	return err
}

// Mutate applies fn to a copy of the current row and writes the result with
// the same guarantees as Update. fn must assign new values to pointer fields
// rather than writing through them.
func (r *Repository[T, P]) Mutate(ctx context.Context, id uint, actor *uint, fn func(row *T) error) (*T, error) {
	return r.mutate(ctx, id, actor, func(current *T) (*T, error) {
		next := *current
		if err := fn(&next); err != nil {
			return nil, err
		}
		return &next, nil
	})
}

func (r *Repository[T, P]) mutate(ctx context.Context, id uint, actor *uint, next func(current *T) (*T, error)) (*T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		row     *T
		changes []audit.Change
	)
	err := r.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := new(T)
		if err := tx.First(old, id).Error; err != nil {
			return err
		}

		var err error
		if row, err = next(old); err != nil {
			return err
		}

		prev, meta := P(old).Meta(), P(row).Meta()
		meta.ID = prev.ID
		meta.CreatedBy = prev.CreatedBy
		meta.CreatedAt = prev.CreatedAt
		meta.Version = prev.Version + 1

		if r.schema.BeforeUpdate != nil {
			if err := r.schema.BeforeUpdate(tx, old, row); err != nil {
				return err
			}
		}

		res := tx.Model(row).
			Omit(clause.Associations).
			Where("version = ?", prev.Version).
			Select("*").
			Updates(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("%s #%d was changed by someone else, reload and try again", r.schema.Table, id)
		}

		changes = audit.Diff(r.schema.Fields(old), r.schema.Fields(row))
		return r.deps.Audit.RecordUpdate(tx, r.schema.Table, id, changes, actor)
	})
	if err != nil {
		return nil, r.fail("update", id, err)
	}

	metrics.ObserveMutation(r.schema.Table, string(models.AuditUpdate), len(changes))
	return row, nil
}

// Delete removes record id and records a DELETE entry.
func (r *Repository[T, P]) Delete(ctx context.Context, id uint, actor *uint) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := new(T)
		if err := tx.First(old, id).Error; err != nil {
			return err
		}
		if r.schema.BeforeDelete != nil {
			if err := r.schema.BeforeDelete(tx, old); err != nil {
				return err
			}
		}

		res := tx.Delete(old)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.deps.Audit.RecordDeletion(tx, r.schema.Table, id, actor)
	})
	if err != nil {
		return r.fail("delete", id, err)
	}

	metrics.ObserveMutation(r.schema.Table, string(models.AuditDelete), 1)
	return nil
}

func (r *Repository[T, P]) fail(op string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, err, "%s #%d not found", r.schema.Table, id)
	}
	err = database.Classify(err)

	kind := apperr.KindOf(err)
	fields := []zap.Field{
		zap.String("table", r.schema.Table),
		zap.String("op", op),
		zap.Uint("id", id),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	switch kind {
	case apperr.KindValidation, apperr.KindForbidden, apperr.KindNotFound:
	case apperr.KindConflict, apperr.KindConstraint:
		r.deps.Logger.Warn("store operation rejected", fields...)
	default:
		r.deps.Logger.Error("store operation failed", fields...)
		metrics.ObserveStoreError(string(kind))
	}
	return err
}
