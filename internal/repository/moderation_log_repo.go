package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// ModerationLogFilter audit log filters
type ModerationLogFilter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
}

// ModerationLogRepository moderation audit trail data access
type ModerationLogRepository interface {
	Create(ctx context.Context, log *model.ModerationLog) error
	List(ctx context.Context, filter ModerationLogFilter, offset, limit int) ([]model.ModerationLog, int64, error)
}

type moderationLogRepo struct {
	db *gorm.DB
}

func NewModerationLogRepo(db *gorm.DB) ModerationLogRepository {
	return &moderationLogRepo{db: db}
}

func (r *moderationLogRepo) Create(ctx context.Context, log *model.ModerationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *moderationLogRepo) List(ctx context.Context, filter ModerationLogFilter, offset, limit int) ([]model.ModerationLog, int64, error) {
	var logs []model.ModerationLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ModerationLog{}).
		Scopes(
			Equals("entity_type", filter.EntityType),
			Equals("entity_id", filter.EntityID),
			Equals("actor_id", filter.ActorID),
			Equals("action", filter.Action),
		).
		Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
