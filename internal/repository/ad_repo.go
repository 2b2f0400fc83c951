package repository

import (
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// AdFilter listing filters for ads
type AdFilter struct {
	Keyword      string
	AdvertiserID string
}

// Scope turns the filter into a query scope.
func (f AdFilter) Scope() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(
			Search(f.Keyword, "title", "description", "guild_name"),
			OwnedBy("advertiser_id", f.AdvertiserID),
		)
	}
}

// AdRepository ad data access across pending, approved and rejected tables
type AdRepository interface {
	ModeratedRepository[model.Ad]
}

type adRepo struct {
	*ModeratedStore[model.Ad]
}

func NewAdRepo(db *gorm.DB) AdRepository {
	return &adRepo{
		ModeratedStore: NewModeratedStore(db, model.AdsBase, "ad_id",
			func(a *model.Ad) string { return a.AdID }),
	}
}
