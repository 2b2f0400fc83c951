package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

// ── approval workflow ──
//
// pending ──approve──▶ approved
//    │                    │
//  reject               edit
//    ▼                    ▼
// rejected ───edit───▶ pending
//
// Every transition moves the row between the state tables and writes a
// moderation log row inside the same transaction.

var (
	ErrNotPending = errors.New("only pending submissions can be reviewed")
	ErrNotOwner   = errors.New("only the owner can change this submission")
)

// workflow binds the approval state machine to one moderated entity type.
type workflow[T any] struct {
	entity   model.EntityType
	notFound error

	store  func(*repository.Repository) repository.ModeratedRepository[T]
	id     func(*T) string
	owner  func(*T) string
	title  func(*T) string
	review func(*T) *model.ReviewFields
	audit  func(*T) *model.BaseModel

	now    Clock
	logger *zap.Logger
}

// located a row together with the table it was found in
type located[T any] struct {
	rec   *T
	state model.ModerationState
}

func (w *workflow[T]) locate(ctx context.Context, repo *repository.Repository, id string) (*located[T], error) {
	rec, state, err := w.store(repo).Locate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, w.notFound
		}
		w.logger.Error("locate failed", zap.String("entity", string(w.entity)), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &located[T]{rec: rec, state: state}, nil
}

// submit inserts rec as pending. after runs in the same transaction, e.g. to
// store child rows.
func (w *workflow[T]) submit(ctx context.Context, repo *repository.Repository, rec *T, actorID string, after func(tx *repository.Repository, rec *T) error) error {
	now := w.now()
	w.review(rec).ResetReview(now)
	audit := w.audit(rec)
	audit.CreatedBy = &actorID
	audit.UpdatedBy = &actorID

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := w.store(tx).Create(ctx, model.StatePending, rec); err != nil {
			return err
		}
		if after != nil {
			if err := after(tx, rec); err != nil {
				return err
			}
		}
		return w.writeLog(ctx, tx, w.id(rec), model.ActionSubmit, actorID, "", model.StatePending, "")
	})
	if err != nil {
		w.logger.Error("submit failed", zap.String("entity", string(w.entity)), zap.Error(err))
		return err
	}
	return nil
}

func (w *workflow[T]) approve(ctx context.Context, repo *repository.Repository, id, reviewerID string) (*T, error) {
	return w.decide(ctx, repo, id, reviewerID, model.StateApproved, model.ActionApprove, "")
}

func (w *workflow[T]) reject(ctx context.Context, repo *repository.Repository, id, reviewerID, reason string) (*T, error) {
	return w.decide(ctx, repo, id, reviewerID, model.StateRejected, model.ActionReject, reason)
}

func (w *workflow[T]) decide(ctx context.Context, repo *repository.Repository, id, reviewerID string, to model.ModerationState, action model.ModerationAction, reason string) (*T, error) {
	loc, err := w.locate(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if loc.state != model.StatePending {
		return nil, ErrNotPending
	}

	var out *T
	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		moved, err := w.store(tx).Move(ctx, id, model.StatePending, to, func(rec *T) error {
			now := w.now()
			w.review(rec).MarkReviewed(reviewerID, now, reason)
			audit := w.audit(rec)
			audit.UpdatedAt = now
			audit.UpdatedBy = &reviewerID
			return nil
		})
		if err != nil {
			return stateConflict(err)
		}
		out = moved
		return w.writeLog(ctx, tx, id, action, reviewerID, model.StatePending, to, reason)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrStateConflict) {
			w.logger.Error("review failed", zap.String("entity", string(w.entity)), zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	w.logger.Info("submission reviewed",
		zap.String("entity", string(w.entity)),
		zap.String("id", id),
		zap.String("state", string(to)),
		zap.String("reviewer", reviewerID),
	)
	return out, nil
}

// edit applies changes for the owner. A pending row is updated in place; an
// approved or rejected row moves back to pending for another review.
func (w *workflow[T]) edit(ctx context.Context, repo *repository.Repository, id string, actor Actor, apply func(tx *repository.Repository, rec *T) error) (*T, model.ModerationState, error) {
	loc, err := w.locate(ctx, repo, id)
	if err != nil {
		return nil, "", err
	}
	if w.owner(loc.rec) != actor.UserID {
		return nil, "", ErrNotOwner
	}

	touch := func(rec *T) {
		audit := w.audit(rec)
		audit.UpdatedAt = w.now()
		audit.UpdatedBy = &actor.UserID
	}

	var out *T
	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		store := w.store(tx)
		if loc.state == model.StatePending {
			fresh, err := store.Get(ctx, model.StatePending, id)
			if err != nil {
				return stateConflict(err)
			}
			if err := apply(tx, fresh); err != nil {
				return err
			}
			touch(fresh)
			if err := store.Update(ctx, model.StatePending, fresh); err != nil {
				return err
			}
			out = fresh
			return nil
		}

		moved, err := store.Move(ctx, id, loc.state, model.StatePending, func(rec *T) error {
			if err := apply(tx, rec); err != nil {
				return err
			}
			w.review(rec).ResetReview(w.now())
			touch(rec)
			return nil
		})
		if err != nil {
			return stateConflict(err)
		}
		out = moved
		return w.writeLog(ctx, tx, id, model.ActionResubmit, actor.UserID, loc.state, model.StatePending, "")
	})
	if err != nil {
		return nil, "", err
	}
	return out, model.StatePending, nil
}

// remove deletes the row wherever it lives. cleanup runs in the same
// transaction, e.g. to drop child rows or cancel placements.
func (w *workflow[T]) remove(ctx context.Context, repo *repository.Repository, id string, actor Actor, cleanup func(tx *repository.Repository, rec *T) error) error {
	loc, err := w.locate(ctx, repo, id)
	if err != nil {
		return err
	}
	if !actor.Staff && w.owner(loc.rec) != actor.UserID {
		return ErrNotOwner
	}

	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := w.store(tx).Delete(ctx, loc.state, id); err != nil {
			return stateConflict(err)
		}
		if cleanup != nil {
			if err := cleanup(tx, loc.rec); err != nil {
				return err
			}
		}
		return w.writeLog(ctx, tx, id, model.ActionDelete, actor.UserID, loc.state, "", "")
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrStateConflict) {
			w.logger.Error("delete failed", zap.String("entity", string(w.entity)), zap.String("id", id), zap.Error(err))
		}
		return err
	}
	return nil
}

// view returns the row if the viewer may see it: approved rows are public,
// the rest only for the owner and staff.
func (w *workflow[T]) view(ctx context.Context, repo *repository.Repository, id string, viewer Actor) (*located[T], error) {
	loc, err := w.locate(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if loc.state != model.StateApproved && !viewer.Staff && (viewer.UserID == "" || w.owner(loc.rec) != viewer.UserID) {
		return nil, w.notFound
	}
	return loc, nil
}

func (w *workflow[T]) writeLog(ctx context.Context, tx *repository.Repository, id string, action model.ModerationAction, actorID string, from, to model.ModerationState, reason string) error {
	return tx.ModerationLog.Create(ctx, &model.ModerationLog{
		EntityType: w.entity,
		EntityID:   id,
		Action:     action,
		ActorID:    actorID,
		FromState:  string(from),
		ToState:    string(to),
		Reason:     reason,
		CreatedAt:  w.now(),
	})
}

// stateConflict maps a vanished row to ErrStateConflict: another request
// moved or deleted it after we located it.
func stateConflict(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.ErrStateConflict
	}
	return err
}

// workflows one state machine per moderated entity sharing clock and logger
type workflows struct {
	scripts   *workflow[model.Script]
	giveaways *workflow[model.Giveaway]
	ads       *workflow[model.Ad]
}

func newWorkflows(now Clock, logger *zap.Logger) *workflows {
	if now == nil {
		now = utcNow
	}
	return &workflows{
		scripts: &workflow[model.Script]{
			entity:   model.EntityScript,
			notFound: ErrScriptNotFound,
			store: func(r *repository.Repository) repository.ModeratedRepository[model.Script] {
				return r.Script
			},
			id:     func(s *model.Script) string { return s.ScriptID },
			owner:  func(s *model.Script) string { return s.SellerID },
			title:  func(s *model.Script) string { return s.Title },
			review: func(s *model.Script) *model.ReviewFields { return &s.ReviewFields },
			audit:  func(s *model.Script) *model.BaseModel { return &s.BaseModel },
			now:    now,
			logger: logger,
		},
		giveaways: &workflow[model.Giveaway]{
			entity:   model.EntityGiveaway,
			notFound: ErrGiveawayNotFound,
			store: func(r *repository.Repository) repository.ModeratedRepository[model.Giveaway] {
				return r.Giveaway
			},
			id:     func(g *model.Giveaway) string { return g.GiveawayID },
			owner:  func(g *model.Giveaway) string { return g.CreatorID },
			title:  func(g *model.Giveaway) string { return g.Title },
			review: func(g *model.Giveaway) *model.ReviewFields { return &g.ReviewFields },
			audit:  func(g *model.Giveaway) *model.BaseModel { return &g.BaseModel },
			now:    now,
			logger: logger,
		},
		ads: &workflow[model.Ad]{
			entity:   model.EntityAd,
			notFound: ErrAdNotFound,
			store: func(r *repository.Repository) repository.ModeratedRepository[model.Ad] {
				return r.Ad
			},
			id:     func(a *model.Ad) string { return a.AdID },
			owner:  func(a *model.Ad) string { return a.AdvertiserID },
			title:  func(a *model.Ad) string { return a.Title },
			review: func(a *model.Ad) *model.ReviewFields { return &a.ReviewFields },
			audit:  func(a *model.Ad) *model.BaseModel { return &a.BaseModel },
			now:    now,
			logger: logger,
		},
	}
}
