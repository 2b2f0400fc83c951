package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// Giveaway timeline filters
const (
	GiveawayUpcoming = "upcoming"
	GiveawayRunning  = "running"
	GiveawayEnded    = "ended"
)

// GiveawayFilter listing filters for giveaways
type GiveawayFilter struct {
	Keyword   string
	CreatorID string
	Timeline  string
	Now       time.Time
}

// Scope turns the filter into a query scope.
func (f GiveawayFilter) Scope() Scope {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(
			Search(f.Keyword, "title", "description"),
			OwnedBy("creator_id", f.CreatorID),
		)
		switch f.Timeline {
		case GiveawayUpcoming:
			db = db.Where("start_at > ?", f.Now)
		case GiveawayRunning:
			db = db.Where("start_at <= ? AND end_at > ?", f.Now, f.Now)
		case GiveawayEnded:
			db = db.Where("end_at <= ?", f.Now)
		}
		return db
	}
}

// GiveawayRepository giveaway data access. The parent row moves between the
// three state tables; requirements, prizes and entries are keyed by id and
// never move.
type GiveawayRepository interface {
	ModeratedRepository[model.Giveaway]

	ReplaceRequirements(ctx context.Context, giveawayID string, reqs []model.GiveawayRequirement) error
	ListRequirements(ctx context.Context, giveawayID string) ([]model.GiveawayRequirement, error)
	ReplacePrizes(ctx context.Context, giveawayID string, prizes []model.GiveawayPrize) error
	ListPrizes(ctx context.Context, giveawayID string) ([]model.GiveawayPrize, error)
	DeleteChildren(ctx context.Context, giveawayID string) error

	CreateEntry(ctx context.Context, entry *model.GiveawayEntry) error
	HasEntry(ctx context.Context, giveawayID, userID string) (bool, error)
	CountEntries(ctx context.Context, giveawayID string) (int64, error)
	CountEntriesByGiveaways(ctx context.Context, giveawayIDs []string) (map[string]int64, error)
	ListEntries(ctx context.Context, giveawayID string, offset, limit int) ([]model.GiveawayEntry, int64, error)
	ListWinners(ctx context.Context, giveawayID string) ([]model.GiveawayEntry, error)
	AllEntryIDs(ctx context.Context, giveawayID string) ([]string, error)
	MarkWinners(ctx context.Context, giveawayID string, placeByEntry map[string]int) error
	ListEndedUndrawn(ctx context.Context, now time.Time, limit int) ([]model.Giveaway, error)
}

type giveawayRepo struct {
	*ModeratedStore[model.Giveaway]
}

func NewGiveawayRepo(db *gorm.DB) GiveawayRepository {
	return &giveawayRepo{
		ModeratedStore: NewModeratedStore(db, model.GiveawaysBase, "giveaway_id",
			func(g *model.Giveaway) string { return g.GiveawayID }),
	}
}

// ── children ──

func (r *giveawayRepo) ReplaceRequirements(ctx context.Context, giveawayID string, reqs []model.GiveawayRequirement) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("giveaway_id = ?", giveawayID).Delete(&model.GiveawayRequirement{}).Error; err != nil {
		return err
	}
	if len(reqs) == 0 {
		return nil
	}
	for i := range reqs {
		reqs[i].GiveawayID = giveawayID
		reqs[i].RequirementID = ""
		reqs[i].SortOrder = i
	}
	return db.Create(&reqs).Error
}

func (r *giveawayRepo) ListRequirements(ctx context.Context, giveawayID string) ([]model.GiveawayRequirement, error) {
	list := make([]model.GiveawayRequirement, 0)
	err := r.db.WithContext(ctx).
		Where("giveaway_id = ?", giveawayID).
		Order("sort_order ASC").
		Find(&list).Error
	return list, err
}

func (r *giveawayRepo) ReplacePrizes(ctx context.Context, giveawayID string, prizes []model.GiveawayPrize) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("giveaway_id = ?", giveawayID).Delete(&model.GiveawayPrize{}).Error; err != nil {
		return err
	}
	if len(prizes) == 0 {
		return nil
	}
	for i := range prizes {
		prizes[i].GiveawayID = giveawayID
		prizes[i].PrizeID = ""
	}
	return db.Create(&prizes).Error
}

func (r *giveawayRepo) ListPrizes(ctx context.Context, giveawayID string) ([]model.GiveawayPrize, error) {
	list := make([]model.GiveawayPrize, 0)
	// unassigned prizes (NULL place) sort last on both postgres and sqlite
	err := r.db.WithContext(ctx).
		Where("giveaway_id = ?", giveawayID).
		Order("CASE WHEN place IS NULL THEN 1 ELSE 0 END, place ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *giveawayRepo) DeleteChildren(ctx context.Context, giveawayID string) error {
	db := r.db.WithContext(ctx)
	for _, m := range []interface{}{&model.GiveawayEntry{}, &model.GiveawayPrize{}, &model.GiveawayRequirement{}} {
		if err := db.Where("giveaway_id = ?", giveawayID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

// ── entries ──

func (r *giveawayRepo) CreateEntry(ctx context.Context, entry *model.GiveawayEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *giveawayRepo) HasEntry(ctx context.Context, giveawayID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.GiveawayEntry{}).
		Where("giveaway_id = ? AND user_id = ?", giveawayID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *giveawayRepo) CountEntries(ctx context.Context, giveawayID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.GiveawayEntry{}).
		Where("giveaway_id = ?", giveawayID).
		Count(&n).Error
	return n, err
}

func (r *giveawayRepo) CountEntriesByGiveaways(ctx context.Context, giveawayIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(giveawayIDs))
	if len(giveawayIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		GiveawayID string
		N          int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.GiveawayEntry{}).
		Select("giveaway_id, COUNT(*) AS n").
		Where("giveaway_id IN ?", giveawayIDs).
		Group("giveaway_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.GiveawayID] = row.N
	}
	return out, nil
}

func (r *giveawayRepo) ListEntries(ctx context.Context, giveawayID string, offset, limit int) ([]model.GiveawayEntry, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&model.GiveawayEntry{}).
		Where("giveaway_id = ?", giveawayID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := make([]model.GiveawayEntry, 0)
	err := base.Preload("User").
		Order("entered_at ASC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *giveawayRepo) ListWinners(ctx context.Context, giveawayID string) ([]model.GiveawayEntry, error) {
	list := make([]model.GiveawayEntry, 0)
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("giveaway_id = ? AND is_winner = ?", giveawayID, true).
		Order("place ASC").
		Find(&list).Error
	return list, err
}

func (r *giveawayRepo) AllEntryIDs(ctx context.Context, giveawayID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&model.GiveawayEntry{}).
		Where("giveaway_id = ?", giveawayID).
		Order("entered_at ASC").
		Pluck("entry_id", &ids).Error
	return ids, err
}

func (r *giveawayRepo) MarkWinners(ctx context.Context, giveawayID string, placeByEntry map[string]int) error {
	db := r.db.WithContext(ctx)
	for entryID, place := range placeByEntry {
		res := db.Model(&model.GiveawayEntry{}).
			Where("entry_id = ? AND giveaway_id = ?", entryID, giveawayID).
			Updates(map[string]interface{}{"is_winner": true, "place": place})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// ListEndedUndrawn approved giveaways past their end without winners.
func (r *giveawayRepo) ListEndedUndrawn(ctx context.Context, now time.Time, limit int) ([]model.Giveaway, error) {
	list := make([]model.Giveaway, 0)
	q := r.db.WithContext(ctx).
		Table(r.TableFor(model.StateApproved)).
		Where("end_at <= ? AND winners_drawn_at IS NULL", now).
		Order("end_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}
