package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// Repository aggregate entry point of every repository
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Script        ScriptRepository
	Giveaway      GiveawayRepository
	Ad            AdRepository
	Slot          SlotRepository
	ModerationLog ModerationLogRepository
}

// NewRepository builds the aggregate on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Script:        NewScriptRepo(db),
		Giveaway:      NewGiveawayRepo(db),
		Ad:            NewAdRepo(db),
		Slot:          NewSlotRepo(db),
		ModerationLog: NewModerationLogRepo(db),
	}
}

// DB underlying connection
func (r *Repository) DB() *gorm.DB { return r.db }

// BeginTx opens a transaction. Use WithTx to get repositories bound to it.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns an aggregate whose repositories all run on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn with a transactional aggregate; the transaction commits
// when fn returns nil and rolls back otherwise. All queries inside fn must go
// through the aggregate it receives.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// AutoMigrate creates every table from the models, including the three state
// tables of each moderated family. Production uses the SQL migrations.
func (r *Repository) AutoMigrate() error {
	if err := r.db.AutoMigrate(
		&model.User{},
		&model.GiveawayRequirement{},
		&model.GiveawayPrize{},
		&model.GiveawayEntry{},
		&model.SlotPurchase{},
		&model.ModerationLog{},
	); err != nil {
		return err
	}
	for _, state := range model.States {
		for base, m := range map[string]interface{}{
			model.ScriptsBase:   &model.Script{},
			model.GiveawaysBase: &model.Giveaway{},
			model.AdsBase:       &model.Ad{},
		} {
			if err := r.db.Table(state.Table(base)).AutoMigrate(m); err != nil {
				return err
			}
		}
	}
	return nil
}
