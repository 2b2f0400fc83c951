package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// ModeratedRepository operations shared by every moderated entity
type ModeratedRepository[T any] interface {
	TableFor(state model.ModerationState) string
	Create(ctx context.Context, state model.ModerationState, rec *T) error
	Get(ctx context.Context, state model.ModerationState, id string) (*T, error)
	Locate(ctx context.Context, id string) (*T, model.ModerationState, error)
	Update(ctx context.Context, state model.ModerationState, rec *T) error
	UpdateColumns(ctx context.Context, state model.ModerationState, id string, values map[string]interface{}, conds ...Scope) error
	Move(ctx context.Context, id string, from, to model.ModerationState, mutate func(*T) error) (*T, error)
	Delete(ctx context.Context, state model.ModerationState, id string) error
	List(ctx context.Context, state model.ModerationState, opts ListOptions) ([]T, int64, error)
	ListByIDs(ctx context.Context, state model.ModerationState, ids []string) ([]T, error)
	Count(ctx context.Context, state model.ModerationState, scopes ...Scope) (int64, error)
}

// ── shared scopes ──

// OwnedBy filters on the owner column.
func OwnedBy(column, ownerID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if ownerID == "" {
			return db
		}
		return db.Where(column+" = ?", ownerID)
	}
}

// Search case-insensitive substring match over columns.
func Search(keyword string, columns ...string) Scope {
	keyword = strings.TrimSpace(keyword)
	return func(db *gorm.DB) *gorm.DB {
		if keyword == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(keyword) + "%"
		conds := make([]string, 0, len(columns))
		args := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// Equals adds column = value when value is non-empty.
func Equals(column, value string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}
