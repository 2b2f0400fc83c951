package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/internal/testutil"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

func newScript(title, seller string) *model.Script {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Script{
		SellerID:    seller,
		Title:       title,
		Slug:        title,
		Description: "desc " + title,
		Category:    "vehicles",
		Currency:    "USD",
		PriceCents:  1500,
		Images:      model.StringList(nil),
		Tags:        model.StringList([]string{"qb"}),
		ReviewFields: model.ReviewFields{
			SubmittedAt: now,
		},
	}
}

func countIn(t *testing.T, repo *repository.Repository, id string) map[model.ModerationState]int64 {
	t.Helper()
	out := map[model.ModerationState]int64{}
	for _, state := range model.States {
		n, err := repo.Script.Count(context.Background(), state, repository.Equals("script_id", id))
		require.NoError(t, err)
		out[state] = n
	}
	return out
}

func TestModeratedStore_CreateAndLocate(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))
	require.NotEmpty(t, s.ScriptID)

	got, state, err := repo.Script.Locate(ctx, s.ScriptID)
	require.NoError(t, err)
	require.Equal(t, model.StatePending, state)
	require.Equal(t, "garage", got.Title)
	require.Equal(t, []string{"qb"}, model.ParseStringList(got.Tags))

	_, _, err = repo.Script.Locate(ctx, model.NewID())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestModeratedStore_MovePreservesIdentity(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))
	created, err := repo.Script.Get(ctx, model.StatePending, s.ScriptID)
	require.NoError(t, err)

	moved, err := repo.Script.Move(ctx, s.ScriptID, model.StatePending, model.StateApproved, func(rec *model.Script) error {
		rec.MarkReviewed("mod-1", time.Now().UTC(), "")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, s.ScriptID, moved.ScriptID)
	require.NotNil(t, moved.ReviewedBy)

	counts := countIn(t, repo, s.ScriptID)
	require.Equal(t, int64(0), counts[model.StatePending])
	require.Equal(t, int64(1), counts[model.StateApproved])
	require.Equal(t, int64(0), counts[model.StateRejected])

	got, err := repo.Script.Get(ctx, model.StateApproved, s.ScriptID)
	require.NoError(t, err)
	require.True(t, created.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, "mod-1", *got.ReviewedBy)
}

func TestModeratedStore_MoveFromWrongState(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))

	_, err := repo.Script.Move(ctx, s.ScriptID, model.StateApproved, model.StateRejected, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.Script.Move(ctx, s.ScriptID, model.StatePending, model.StatePending, nil)
	require.ErrorIs(t, err, pkgerrors.ErrStateConflict)

	require.Equal(t, int64(1), countIn(t, repo, s.ScriptID)[model.StatePending])
}

func TestModeratedStore_MutateErrorRollsBack(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))

	boom := errors.New("boom")
	_, err := repo.Script.Move(ctx, s.ScriptID, model.StatePending, model.StateApproved, func(*model.Script) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	counts := countIn(t, repo, s.ScriptID)
	require.Equal(t, int64(1), counts[model.StatePending])
	require.Equal(t, int64(0), counts[model.StateApproved])
}

func TestModeratedStore_FailedInsertKeepsSource(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))

	// a row with the same key already sitting in the target table makes the insert fail
	clash := newScript("clash", "seller-2")
	clash.ScriptID = s.ScriptID
	require.NoError(t, repo.Script.Create(ctx, model.StateApproved, clash))

	_, err := repo.Script.Move(ctx, s.ScriptID, model.StatePending, model.StateApproved, nil)
	require.Error(t, err)

	got, err := repo.Script.Get(ctx, model.StatePending, s.ScriptID)
	require.NoError(t, err)
	require.Equal(t, "garage", got.Title)
}

func TestModeratedStore_MoveInsideOuterTransaction(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))

	boom := errors.New("log failed")
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Script.Move(ctx, s.ScriptID, model.StatePending, model.StateRejected, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, int64(1), countIn(t, repo, s.ScriptID)[model.StatePending])

	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		_, err := tx.Script.Move(ctx, s.ScriptID, model.StatePending, model.StateRejected, nil)
		if err != nil {
			return err
		}
		return tx.ModerationLog.Create(ctx, &model.ModerationLog{
			EntityType: model.EntityScript,
			EntityID:   s.ScriptID,
			Action:     model.ActionReject,
			ActorID:    model.NewID(),
		})
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), countIn(t, repo, s.ScriptID)[model.StateRejected])

	logs, total, err := repo.ModerationLog.List(ctx, repository.ModerationLogFilter{EntityID: s.ScriptID}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, model.ActionReject, logs[0].Action)
}

func TestModeratedStore_UpdateConflictAfterMove(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StatePending, s))

	stale, err := repo.Script.Get(ctx, model.StatePending, s.ScriptID)
	require.NoError(t, err)

	_, err = repo.Script.Move(ctx, s.ScriptID, model.StatePending, model.StateApproved, nil)
	require.NoError(t, err)

	stale.Title = "edited"
	require.ErrorIs(t, repo.Script.Update(ctx, model.StatePending, stale), pkgerrors.ErrStateConflict)

	got, err := repo.Script.Get(ctx, model.StateApproved, s.ScriptID)
	require.NoError(t, err)
	require.Equal(t, "garage", got.Title)
}

func TestModeratedStore_ListFilterAndPaging(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	for _, title := range []string{"Garage Pack", "Police MDT", "garage lift"} {
		require.NoError(t, repo.Script.Create(ctx, model.StateApproved, newScript(title, "seller-1")))
	}
	require.NoError(t, repo.Script.Create(ctx, model.StateApproved, newScript("Bank Heist", "seller-2")))

	list, total, err := repo.Script.List(ctx, model.StateApproved, repository.ListOptions{
		Scopes: []repository.Scope{repository.ScriptFilter{Keyword: "GARAGE"}.Scope()},
		Order:  "title ASC",
		Limit:  1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	require.Equal(t, "Garage Pack", list[0].Title)

	_, total, err = repo.Script.List(ctx, model.StateApproved, repository.ListOptions{
		Scopes: []repository.Scope{repository.ScriptFilter{SellerID: "seller-2"}.Scope()},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, total, err = repo.Script.List(ctx, model.StatePending, repository.ListOptions{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestScriptRepo_SlugExistsAcrossStates(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	s := newScript("garage", "seller-1")
	require.NoError(t, repo.Script.Create(ctx, model.StateRejected, s))

	exists, err := repo.Script.SlugExists(ctx, "garage", "")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.Script.SlugExists(ctx, "garage", s.ScriptID)
	require.NoError(t, err)
	require.False(t, exists)
}
