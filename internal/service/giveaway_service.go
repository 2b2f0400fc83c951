package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/discord"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

var (
	ErrGiveawayNotFound     = errors.New("giveaway not found")
	ErrGiveawayInvalidRange = errors.New("end_at must be after start_at")
	ErrPrizePlaceOutOfRange = errors.New("prize place exceeds winner_count")
	ErrGiveawayNotApproved  = errors.New("giveaway is not approved")
	ErrGiveawayNotRunning   = errors.New("giveaway is not accepting entries")
	ErrCreatorCannotEnter   = errors.New("creators cannot enter their own giveaway")
	ErrAlreadyEntered       = errors.New("already entered this giveaway")
	ErrRequirementNotMet    = errors.New("entry requirement not met")
	ErrGiveawayNotEnded     = errors.New("giveaway has not ended yet")
	ErrWinnersAlreadyDrawn  = errors.New("winners have already been drawn")
)

// drawBatch giveaways handled per worker tick
const drawBatch = 50

// GiveawayService giveaway lifecycle, entries and winner draws
type GiveawayService interface {
	Submit(ctx context.Context, req *dto.CreateGiveawayRequest, actor Actor) (*dto.GiveawayResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateGiveawayRequest, actor Actor) (*dto.GiveawayResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
	Get(ctx context.Context, id string, viewer Actor) (*dto.GiveawayResponse, error)
	List(ctx context.Context, req *dto.GiveawayListRequest) ([]dto.GiveawayResponse, int64, error)
	ListMine(ctx context.Context, req *dto.StateListRequest, actor Actor) ([]dto.GiveawayResponse, int64, error)

	Enter(ctx context.Context, id string, actor Actor) (*dto.EntryResponse, error)
	ListEntries(ctx context.Context, id string, req *dto.PaginationRequest, actor Actor) ([]dto.EntryResponse, int64, error)
	DrawWinners(ctx context.Context, id string, actor Actor) (*dto.DrawResultResponse, error)
	// DrawDue draws every approved giveaway that ended without winners; returns how many were drawn.
	DrawDue(ctx context.Context) (int, error)
}

type giveawayService struct {
	repo   *repository.Repository
	flow   *workflow[model.Giveaway]
	now    Clock
	logger *zap.Logger
}

func NewGiveawayService(repo *repository.Repository, flows *workflows, logger *zap.Logger) GiveawayService {
	return &giveawayService{
		repo:   repo,
		flow:   flows.giveaways,
		now:    flows.giveaways.now,
		logger: logger,
	}
}

// ────────────────────── Submit / Update / Delete ──────────────────────

func (s *giveawayService) Submit(ctx context.Context, req *dto.CreateGiveawayRequest, actor Actor) (*dto.GiveawayResponse, error) {
	if _, err := activeUser(ctx, s.repo, actor.UserID); err != nil {
		return nil, err
	}
	if err := validateGiveaway(req.StartAt, req.EndAt, req.WinnerCount, req.Prizes); err != nil {
		return nil, err
	}

	g := &model.Giveaway{
		CreatorID:   actor.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CoverImage:  req.CoverImage,
		StartAt:     req.StartAt.UTC(),
		EndAt:       req.EndAt.UTC(),
		WinnerCount: req.WinnerCount,
	}
	reqs := toRequirementModels(req.Requirements)
	prizes := toPrizeModels(req.Prizes)

	err := s.flow.submit(ctx, s.repo, g, actor.UserID, func(tx *repository.Repository, rec *model.Giveaway) error {
		if err := tx.Giveaway.ReplaceRequirements(ctx, rec.GiveawayID, reqs); err != nil {
			return err
		}
		return tx.Giveaway.ReplacePrizes(ctx, rec.GiveawayID, prizes)
	})
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(g, model.StatePending, reqs, prizes, 0, nil)
	return &resp, nil
}

func (s *giveawayService) Update(ctx context.Context, id string, req *dto.UpdateGiveawayRequest, actor Actor) (*dto.GiveawayResponse, error) {
	if _, err := activeUser(ctx, s.repo, actor.UserID); err != nil {
		return nil, err
	}

	g, state, err := s.flow.edit(ctx, s.repo, id, actor, func(tx *repository.Repository, rec *model.Giveaway) error {
		if rec.WinnersDrawnAt != nil {
			return ErrWinnersAlreadyDrawn
		}
		if req.Title != nil {
			rec.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			rec.Description = *req.Description
		}
		if req.CoverImage != nil {
			rec.CoverImage = *req.CoverImage
		}
		if req.StartAt != nil {
			rec.StartAt = req.StartAt.UTC()
		}
		if req.EndAt != nil {
			rec.EndAt = req.EndAt.UTC()
		}
		if req.WinnerCount != nil {
			rec.WinnerCount = *req.WinnerCount
		}

		var prizeInputs []dto.PrizeInput
		if req.Prizes != nil {
			prizeInputs = *req.Prizes
		} else {
			current, err := tx.Giveaway.ListPrizes(ctx, rec.GiveawayID)
			if err != nil {
				return err
			}
			for _, p := range current {
				prizeInputs = append(prizeInputs, dto.PrizeInput{Place: p.Place})
			}
		}
		if err := validateGiveaway(rec.StartAt, rec.EndAt, rec.WinnerCount, prizeInputs); err != nil {
			return err
		}

		if req.Requirements != nil {
			if err := tx.Giveaway.ReplaceRequirements(ctx, rec.GiveawayID, toRequirementModels(*req.Requirements)); err != nil {
				return err
			}
		}
		if req.Prizes != nil {
			if err := tx.Giveaway.ReplacePrizes(ctx, rec.GiveawayID, toPrizeModels(*req.Prizes)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, g, state)
}

func (s *giveawayService) Delete(ctx context.Context, id string, actor Actor) error {
	return s.flow.remove(ctx, s.repo, id, actor, func(tx *repository.Repository, rec *model.Giveaway) error {
		return tx.Giveaway.DeleteChildren(ctx, rec.GiveawayID)
	})
}

// ────────────────────── Read ──────────────────────

func (s *giveawayService) Get(ctx context.Context, id string, viewer Actor) (*dto.GiveawayResponse, error) {
	loc, err := s.flow.view(ctx, s.repo, id, viewer)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, loc.rec, loc.state)
}

func (s *giveawayService) List(ctx context.Context, req *dto.GiveawayListRequest) ([]dto.GiveawayResponse, int64, error) {
	filter := repository.GiveawayFilter{
		Keyword:   req.Keyword,
		CreatorID: req.CreatorID,
		Timeline:  req.Status,
		Now:       s.now(),
	}
	order := "created_at DESC"
	switch req.Status {
	case repository.GiveawayRunning:
		order = "end_at ASC"
	case repository.GiveawayUpcoming:
		order = "start_at ASC"
	case repository.GiveawayEnded:
		order = "end_at DESC"
	}
	return s.list(ctx, model.StateApproved, repository.ListOptions{
		Scopes: []repository.Scope{filter.Scope()},
		Order:  order,
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
}

func (s *giveawayService) ListMine(ctx context.Context, req *dto.StateListRequest, actor Actor) ([]dto.GiveawayResponse, int64, error) {
	return s.list(ctx, model.ModerationState(req.GetState()), repository.ListOptions{
		Scopes: []repository.Scope{repository.OwnedBy("creator_id", actor.UserID)},
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
}

func (s *giveawayService) list(ctx context.Context, state model.ModerationState, opts repository.ListOptions) ([]dto.GiveawayResponse, int64, error) {
	giveaways, total, err := s.repo.Giveaway.List(ctx, state, opts)
	if err != nil {
		s.logger.Error("list giveaways failed", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(giveaways))
	for _, g := range giveaways {
		ids = append(ids, g.GiveawayID)
	}
	counts, err := s.repo.Giveaway.CountEntriesByGiveaways(ctx, ids)
	if err != nil {
		s.logger.Error("count giveaway entries failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.GiveawayResponse, 0, len(giveaways))
	for i := range giveaways {
		g := &giveaways[i]
		list = append(list, s.toResponse(g, state, nil, nil, counts[g.GiveawayID], nil))
	}
	return list, total, nil
}

func (s *giveawayService) detail(ctx context.Context, g *model.Giveaway, state model.ModerationState) (*dto.GiveawayResponse, error) {
	reqs, err := s.repo.Giveaway.ListRequirements(ctx, g.GiveawayID)
	if err != nil {
		return nil, err
	}
	prizes, err := s.repo.Giveaway.ListPrizes(ctx, g.GiveawayID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Giveaway.CountEntries(ctx, g.GiveawayID)
	if err != nil {
		return nil, err
	}
	var winners []model.GiveawayEntry
	if g.WinnersDrawnAt != nil {
		if winners, err = s.repo.Giveaway.ListWinners(ctx, g.GiveawayID); err != nil {
			return nil, err
		}
	}
	resp := s.toResponse(g, state, reqs, prizes, count, winners)
	return &resp, nil
}

// ────────────────────── Entries ──────────────────────

func (s *giveawayService) Enter(ctx context.Context, id string, actor Actor) (*dto.EntryResponse, error) {
	user, err := activeUser(ctx, s.repo, actor.UserID)
	if err != nil {
		return nil, err
	}

	g, err := s.approved(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !g.Running(now) {
		return nil, ErrGiveawayNotRunning
	}
	if g.CreatorID == user.UserID {
		return nil, ErrCreatorCannotEnter
	}

	entered, err := s.repo.Giveaway.HasEntry(ctx, g.GiveawayID, user.UserID)
	if err != nil {
		return nil, err
	}
	if entered {
		return nil, ErrAlreadyEntered
	}

	reqs, err := s.repo.Giveaway.ListRequirements(ctx, g.GiveawayID)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if err := checkRequirement(&reqs[i], user, now); err != nil {
			return nil, err
		}
	}

	entry := &model.GiveawayEntry{
		GiveawayID: g.GiveawayID,
		UserID:     user.UserID,
		EnteredAt:  now,
	}
	if err := s.repo.Giveaway.CreateEntry(ctx, entry); err != nil {
		// concurrent second entry hits the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEntered
		}
		s.logger.Error("create giveaway entry failed", zap.String("giveaway_id", id), zap.Error(err))
		return nil, err
	}

	entry.User = user
	resp := toEntryResponse(entry)
	return &resp, nil
}

func (s *giveawayService) ListEntries(ctx context.Context, id string, req *dto.PaginationRequest, actor Actor) ([]dto.EntryResponse, int64, error) {
	loc, err := s.flow.locate(ctx, s.repo, id)
	if err != nil {
		return nil, 0, err
	}
	if !actor.Staff && loc.rec.CreatorID != actor.UserID {
		return nil, 0, ErrNotOwner
	}

	entries, total, err := s.repo.Giveaway.ListEntries(ctx, id, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list giveaway entries failed", zap.String("giveaway_id", id), zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		list = append(list, toEntryResponse(&entries[i]))
	}
	return list, total, nil
}

// ────────────────────── Draw ──────────────────────

func (s *giveawayService) DrawWinners(ctx context.Context, id string, actor Actor) (*dto.DrawResultResponse, error) {
	g, err := s.approved(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && g.CreatorID != actor.UserID {
		return nil, ErrNotOwner
	}
	return s.draw(ctx, id)
}

func (s *giveawayService) DrawDue(ctx context.Context) (int, error) {
	due, err := s.repo.Giveaway.ListEndedUndrawn(ctx, s.now(), drawBatch)
	if err != nil {
		s.logger.Error("list ended giveaways failed", zap.Error(err))
		return 0, err
	}

	drawn := 0
	for _, g := range due {
		if _, err := s.draw(ctx, g.GiveawayID); err != nil {
			if errors.Is(err, ErrWinnersAlreadyDrawn) {
				continue
			}
			s.logger.Warn("draw giveaway failed", zap.String("giveaway_id", g.GiveawayID), zap.Error(err))
			continue
		}
		drawn++
	}
	return drawn, nil
}

// draw picks up to winner_count distinct entries and stamps winners_drawn_at.
// The conditional stamp makes a concurrent second draw fail as already drawn.
func (s *giveawayService) draw(ctx context.Context, id string) (*dto.DrawResultResponse, error) {
	var (
		drawnAt time.Time
		winners []model.GiveawayEntry
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		g, err := s.approved(ctx, tx, id)
		if err != nil {
			return err
		}
		if g.WinnersDrawnAt != nil {
			return ErrWinnersAlreadyDrawn
		}
		drawnAt = s.now()
		if drawnAt.Before(g.EndAt) {
			return ErrGiveawayNotEnded
		}

		ids, err := tx.Giveaway.AllEntryIDs(ctx, id)
		if err != nil {
			return err
		}
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		if len(ids) > g.WinnerCount {
			ids = ids[:g.WinnerCount]
		}
		places := make(map[string]int, len(ids))
		for i, entryID := range ids {
			places[entryID] = i + 1
		}
		if err := tx.Giveaway.MarkWinners(ctx, id, places); err != nil {
			return err
		}

		err = tx.Giveaway.UpdateColumns(ctx, model.StateApproved, id,
			map[string]interface{}{"winners_drawn_at": drawnAt, "updated_at": drawnAt},
			func(db *gorm.DB) *gorm.DB { return db.Where("winners_drawn_at IS NULL") },
		)
		if errors.Is(err, pkgerrors.ErrStateConflict) {
			return ErrWinnersAlreadyDrawn
		}
		if err != nil {
			return err
		}

		winners, err = tx.Giveaway.ListWinners(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("giveaway winners drawn", zap.String("giveaway_id", id), zap.Int("winners", len(winners)))

	result := &dto.DrawResultResponse{
		GiveawayID: id,
		DrawnAt:    formatTime(drawnAt),
		Winners:    make([]dto.EntryResponse, 0, len(winners)),
	}
	for i := range winners {
		result.Winners = append(result.Winners, toEntryResponse(&winners[i]))
	}
	return result, nil
}

// approved loads the giveaway from the approved table, telling apart a
// giveaway still under review from one that does not exist.
func (s *giveawayService) approved(ctx context.Context, repo *repository.Repository, id string) (*model.Giveaway, error) {
	g, err := repo.Giveaway.Get(ctx, model.StateApproved, id)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, _, lerr := repo.Giveaway.Locate(ctx, id); lerr == nil {
		return nil, ErrGiveawayNotApproved
	}
	return nil, ErrGiveawayNotFound
}

// ── helpers ──

func validateGiveaway(start, end time.Time, winnerCount int, prizes []dto.PrizeInput) error {
	if !end.After(start) {
		return ErrGiveawayInvalidRange
	}
	for _, p := range prizes {
		if p.Place != nil && *p.Place > winnerCount {
			return ErrPrizePlaceOutOfRange
		}
	}
	return nil
}

func checkRequirement(req *model.GiveawayRequirement, user *model.User, now time.Time) error {
	switch req.Type {
	case model.RequirementDiscordMember:
		if !user.InGuild(req.GuildID) {
			return fmt.Errorf("%w: join the Discord server %s and sign in again", ErrRequirementNotMet, req.GuildID)
		}
	case model.RequirementAccountAge:
		created, err := discord.AccountCreatedAt(user.DiscordID)
		if err != nil {
			return fmt.Errorf("%w: unknown Discord account age", ErrRequirementNotMet)
		}
		minAge := time.Duration(req.MinAccountAgeDays) * 24 * time.Hour
		if now.Sub(created) < minAge {
			return fmt.Errorf("%w: Discord account must be at least %d days old", ErrRequirementNotMet, req.MinAccountAgeDays)
		}
	}
	return nil
}

func toRequirementModels(in []dto.RequirementInput) []model.GiveawayRequirement {
	out := make([]model.GiveawayRequirement, 0, len(in))
	for _, r := range in {
		out = append(out, model.GiveawayRequirement{
			Type:              r.Type,
			GuildID:           r.GuildID,
			InviteURL:         r.InviteURL,
			MinAccountAgeDays: r.MinAccountAgeDays,
			Description:       r.Description,
		})
	}
	return out
}

func toPrizeModels(in []dto.PrizeInput) []model.GiveawayPrize {
	out := make([]model.GiveawayPrize, 0, len(in))
	for _, p := range in {
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		out = append(out, model.GiveawayPrize{
			Place:       p.Place,
			Title:       p.Title,
			Description: p.Description,
			Quantity:    qty,
		})
	}
	return out
}

func (s *giveawayService) toResponse(g *model.Giveaway, state model.ModerationState, reqs []model.GiveawayRequirement, prizes []model.GiveawayPrize, entries int64, winners []model.GiveawayEntry) dto.GiveawayResponse {
	resp := dto.GiveawayResponse{
		ID:             g.GiveawayID,
		CreatorID:      g.CreatorID,
		Title:          g.Title,
		Description:    g.Description,
		CoverImage:     g.CoverImage,
		StartAt:        formatTime(g.StartAt),
		EndAt:          formatTime(g.EndAt),
		Status:         timeline(g, s.now()),
		WinnerCount:    g.WinnerCount,
		WinnersDrawnAt: formatTimePtr(g.WinnersDrawnAt),
		EntryCount:     entries,
		Requirements:   make([]dto.RequirementResponse, 0, len(reqs)),
		Prizes:         make([]dto.PrizeResponse, 0, len(prizes)),
		CreatedAt:      formatTime(g.CreatedAt),
		ReviewInfo:     reviewInfo(&g.ReviewFields, state),
	}
	for _, r := range reqs {
		resp.Requirements = append(resp.Requirements, dto.RequirementResponse{
			ID:                r.RequirementID,
			Type:              r.Type,
			GuildID:           r.GuildID,
			InviteURL:         r.InviteURL,
			MinAccountAgeDays: r.MinAccountAgeDays,
			Description:       r.Description,
		})
	}
	for _, p := range prizes {
		resp.Prizes = append(resp.Prizes, dto.PrizeResponse{
			ID:          p.PrizeID,
			Place:       p.Place,
			Title:       p.Title,
			Description: p.Description,
			Quantity:    p.Quantity,
		})
	}
	for i := range winners {
		resp.Winners = append(resp.Winners, toEntryResponse(&winners[i]))
	}
	return resp
}

func timeline(g *model.Giveaway, now time.Time) string {
	switch {
	case now.Before(g.StartAt):
		return repository.GiveawayUpcoming
	case g.Running(now):
		return repository.GiveawayRunning
	default:
		return repository.GiveawayEnded
	}
}

func toEntryResponse(e *model.GiveawayEntry) dto.EntryResponse {
	resp := dto.EntryResponse{
		ID:        e.EntryID,
		UserID:    e.UserID,
		EnteredAt: formatTime(e.EnteredAt),
		IsWinner:  e.IsWinner,
		Place:     e.Place,
	}
	if e.User != nil {
		resp.Username = e.User.Username
		resp.AvatarURL = e.User.AvatarURL()
	}
	return resp
}
