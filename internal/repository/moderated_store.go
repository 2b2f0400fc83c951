package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

// Scope reusable query fragment
type Scope = func(*gorm.DB) *gorm.DB

// ListOptions paging and filtering for the moderated tables
type ListOptions struct {
	Scopes []Scope
	Order  string
	Offset int
	Limit  int
}

// ModeratedStore keeps one entity type in three parallel tables
// (pending_<base>, approved_<base>, rejected_<base>) with identical columns.
// A row lives in exactly one of them; changing state deletes it from one
// table and inserts it into another inside a single transaction.
type ModeratedStore[T any] struct {
	db   *gorm.DB
	base string
	key  string
	idOf func(*T) string
}

// NewModeratedStore base is the table family name, key the primary key column.
func NewModeratedStore[T any](db *gorm.DB, base, key string, idOf func(*T) string) *ModeratedStore[T] {
	return &ModeratedStore[T]{db: db, base: base, key: key, idOf: idOf}
}

// WithTx returns a copy bound to tx.
func (s *ModeratedStore[T]) WithTx(tx *gorm.DB) *ModeratedStore[T] {
	cp := *s
	cp.db = tx
	return &cp
}

// TableFor physical table name for state
func (s *ModeratedStore[T]) TableFor(state model.ModerationState) string {
	return state.Table(s.base)
}

func (s *ModeratedStore[T]) table(ctx context.Context, db *gorm.DB, state model.ModerationState) *gorm.DB {
	return db.WithContext(ctx).Table(s.TableFor(state))
}

// Create inserts rec into the table of state.
func (s *ModeratedStore[T]) Create(ctx context.Context, state model.ModerationState, rec *T) error {
	return s.table(ctx, s.db, state).Create(rec).Error
}

// Get loads a row from the table of state.
func (s *ModeratedStore[T]) Get(ctx context.Context, state model.ModerationState, id string) (*T, error) {
	var rec T
	if err := s.table(ctx, s.db, state).Where(s.key+" = ?", id).Take(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Locate searches pending, approved and rejected in that order.
func (s *ModeratedStore[T]) Locate(ctx context.Context, id string) (*T, model.ModerationState, error) {
	for _, state := range model.States {
		rec, err := s.Get(ctx, state, id)
		if err == nil {
			return rec, state, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
	}
	return nil, "", gorm.ErrRecordNotFound
}

// Update rewrites every column of rec in place. Fails with ErrStateConflict
// when the row has left the table of state in the meantime.
func (s *ModeratedStore[T]) Update(ctx context.Context, state model.ModerationState, rec *T) error {
	res := s.table(ctx, s.db, state).
		Where(s.key+" = ?", s.idOf(rec)).
		Select("*").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrStateConflict
	}
	return nil
}

// UpdateColumns updates a subset of columns of the row in place.
func (s *ModeratedStore[T]) UpdateColumns(ctx context.Context, state model.ModerationState, id string, values map[string]interface{}, conds ...Scope) error {
	res := s.table(ctx, s.db, state).
		Where(s.key+" = ?", id).
		Scopes(conds...).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrStateConflict
	}
	return nil
}

// Move transfers the row id from one state table to another. mutate runs on
// the loaded row before it is inserted into the target table; returning an
// error from it aborts the move. The id and created_at survive the move.
//
// Returns gorm.ErrRecordNotFound when the row is not in from, and
// ErrStateConflict when a concurrent move removed it first.
func (s *ModeratedStore[T]) Move(ctx context.Context, id string, from, to model.ModerationState, mutate func(*T) error) (*T, error) {
	if from == to {
		return nil, pkgerrors.ErrStateConflict
	}

	var moved *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec T
		if err := s.table(ctx, tx, from).Where(s.key+" = ?", id).Take(&rec).Error; err != nil {
			return err
		}

		res := s.table(ctx, tx, from).Where(s.key+" = ?", id).Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrStateConflict
		}

		if mutate != nil {
			if err := mutate(&rec); err != nil {
				return err
			}
		}

		if err := s.table(ctx, tx, to).Create(&rec).Error; err != nil {
			return err
		}
		moved = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes the row from the table of state.
func (s *ModeratedStore[T]) Delete(ctx context.Context, state model.ModerationState, id string) error {
	res := s.table(ctx, s.db, state).Where(s.key+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List pages through the table of state.
func (s *ModeratedStore[T]) List(ctx context.Context, state model.ModerationState, opts ListOptions) ([]T, int64, error) {
	base := s.table(ctx, s.db, state).Scopes(opts.Scopes...).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := opts.Order
	if order == "" {
		order = "created_at DESC"
	}
	q := base.Order(order)
	if opts.Limit > 0 {
		q = q.Offset(opts.Offset).Limit(opts.Limit)
	}

	list := make([]T, 0)
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByIDs loads the rows of state whose key is in ids.
func (s *ModeratedStore[T]) ListByIDs(ctx context.Context, state model.ModerationState, ids []string) ([]T, error) {
	list := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return list, nil
	}
	err := s.table(ctx, s.db, state).Where(s.key+" IN ?", ids).Find(&list).Error
	return list, err
}

// Count counts rows of state matching scopes.
func (s *ModeratedStore[T]) Count(ctx context.Context, state model.ModerationState, scopes ...Scope) (int64, error) {
	var n int64
	err := s.table(ctx, s.db, state).Scopes(scopes...).Count(&n).Error
	return n, err
}
