package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// ScriptFilter listing filters for scripts
type ScriptFilter struct {
	Keyword   string
	Category  string
	Framework string
	SellerID  string
	MinPrice  *int64
	MaxPrice  *int64
}

// Scope turns the filter into a query scope.
func (f ScriptFilter) Scope() Scope {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(
			Search(f.Keyword, "title", "description"),
			Equals("category", f.Category),
			Equals("framework", f.Framework),
			OwnedBy("seller_id", f.SellerID),
		)
		if f.MinPrice != nil {
			db = db.Where("price_cents >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			db = db.Where("price_cents <= ?", *f.MaxPrice)
		}
		return db
	}
}

// ScriptRepository script data access across pending, approved and rejected tables
type ScriptRepository interface {
	ModeratedRepository[model.Script]
	SlugExists(ctx context.Context, slug, exceptID string) (bool, error)
	GetBySlug(ctx context.Context, state model.ModerationState, slug string) (*model.Script, error)
}

type scriptRepo struct {
	*ModeratedStore[model.Script]
}

func NewScriptRepo(db *gorm.DB) ScriptRepository {
	return &scriptRepo{
		ModeratedStore: NewModeratedStore(db, model.ScriptsBase, "script_id",
			func(s *model.Script) string { return s.ScriptID }),
	}
}

// SlugExists checks all three tables so a slug stays unique through moves.
func (r *scriptRepo) SlugExists(ctx context.Context, slug, exceptID string) (bool, error) {
	for _, state := range model.States {
		n, err := r.Count(ctx, state, func(db *gorm.DB) *gorm.DB {
			db = db.Where("slug = ?", slug)
			if exceptID != "" {
				db = db.Where("script_id <> ?", exceptID)
			}
			return db
		})
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (r *scriptRepo) GetBySlug(ctx context.Context, state model.ModerationState, slug string) (*model.Script, error) {
	var s model.Script
	err := r.db.WithContext(ctx).
		Table(r.TableFor(state)).
		Where("slug = ?", slug).
		Take(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
