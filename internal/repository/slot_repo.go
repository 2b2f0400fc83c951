package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// SlotFilter admin listing filters for slot purchases
type SlotFilter struct {
	Kind     string
	Status   string
	UserID   string
	TargetID string
}

// SlotRepository slot purchase data access
type SlotRepository interface {
	Create(ctx context.Context, slot *model.SlotPurchase) error
	GetByID(ctx context.Context, id string) (*model.SlotPurchase, error)
	Cancel(ctx context.Context, id string, at time.Time, callerID string) error
	List(ctx context.Context, filter SlotFilter, offset, limit int) ([]model.SlotPurchase, int64, error)
	CountOverlapping(ctx context.Context, kind string, start, end time.Time) (int64, error)
	ListActiveAt(ctx context.Context, kind string, at time.Time) ([]model.SlotPurchase, error)
	ListInWindow(ctx context.Context, kind string, start, end time.Time) ([]model.SlotPurchase, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	CancelByTarget(ctx context.Context, kind, targetID string, at time.Time) (int64, error)
	CountActive(ctx context.Context, kind string, now time.Time) (int64, error)
	SumRevenue(ctx context.Context) (int64, error)
}

type slotRepo struct {
	db *gorm.DB
}

func NewSlotRepo(db *gorm.DB) SlotRepository {
	return &slotRepo{db: db}
}

func (r *slotRepo) Create(ctx context.Context, slot *model.SlotPurchase) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *slotRepo) GetByID(ctx context.Context, id string) (*model.SlotPurchase, error) {
	var slot model.SlotPurchase
	err := r.db.WithContext(ctx).
		Where("slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Cancel only succeeds while the purchase is still active.
func (r *slotRepo) Cancel(ctx context.Context, id string, at time.Time, callerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.SlotPurchase{}).
		Where("slot_id = ? AND status = ?", id, model.SlotStatusActive).
		Updates(map[string]interface{}{
			"status":       model.SlotStatusCancelled,
			"cancelled_at": at,
			"updated_by":   callerID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *slotRepo) List(ctx context.Context, filter SlotFilter, offset, limit int) ([]model.SlotPurchase, int64, error) {
	var slots []model.SlotPurchase
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SlotPurchase{}).
		Scopes(
			Equals("kind", filter.Kind),
			Equals("status", filter.Status),
			Equals("user_id", filter.UserID),
			Equals("target_id", filter.TargetID),
		).
		Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Order("start_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&slots).Error
	return slots, total, err
}

// CountOverlapping active purchases of kind intersecting [start, end).
func (r *slotRepo) CountOverlapping(ctx context.Context, kind string, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.SlotPurchase{}).
		Where("kind = ? AND status = ? AND start_at < ? AND end_at > ?",
			kind, model.SlotStatusActive, end, start).
		Count(&n).Error
	return n, err
}

func (r *slotRepo) ListActiveAt(ctx context.Context, kind string, at time.Time) ([]model.SlotPurchase, error) {
	slots := make([]model.SlotPurchase, 0)
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND start_at <= ? AND end_at > ?",
			kind, model.SlotStatusActive, at, at).
		Order("start_at ASC").
		Find(&slots).Error
	return slots, err
}

// ListInWindow active and expired purchases intersecting [start, end), kind optional.
func (r *slotRepo) ListInWindow(ctx context.Context, kind string, start, end time.Time) ([]model.SlotPurchase, error) {
	slots := make([]model.SlotPurchase, 0)
	err := r.db.WithContext(ctx).
		Scopes(Equals("kind", kind)).
		Where("status <> ? AND start_at < ? AND end_at > ?", model.SlotStatusCancelled, end, start).
		Order("start_at ASC").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepo) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SlotPurchase{}).
		Where("status = ? AND end_at <= ?", model.SlotStatusActive, now).
		Update("status", model.SlotStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *slotRepo) CancelByTarget(ctx context.Context, kind, targetID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SlotPurchase{}).
		Where("kind = ? AND target_id = ? AND status = ?", kind, targetID, model.SlotStatusActive).
		Updates(map[string]interface{}{
			"status":       model.SlotStatusCancelled,
			"cancelled_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *slotRepo) CountActive(ctx context.Context, kind string, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.SlotPurchase{}).
		Where("kind = ? AND status = ? AND start_at <= ? AND end_at > ?",
			kind, model.SlotStatusActive, now, now).
		Count(&n).Error
	return n, err
}

// SumRevenue total of active and expired purchases in cents.
func (r *slotRepo) SumRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.SlotPurchase{}).
		Where("status IN ?", []string{model.SlotStatusActive, model.SlotStatusExpired}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
