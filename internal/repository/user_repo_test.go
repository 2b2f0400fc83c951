package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/internal/testutil"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

func TestUserRepo_ProfileOptimisticLock(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	u := &model.User{DiscordID: "80351110224678912", Username: "nelly", Role: model.RoleUser, GuildIDs: model.StringList(nil)}
	require.NoError(t, repo.User.Create(ctx, u))

	a, err := repo.User.GetByID(ctx, u.UserID)
	require.NoError(t, err)
	b, err := repo.User.GetByID(ctx, u.UserID)
	require.NoError(t, err)

	a.Bio = "first"
	require.NoError(t, repo.User.UpdateProfile(ctx, a))
	require.Equal(t, 2, a.Version)

	b.Bio = "second"
	require.ErrorIs(t, repo.User.UpdateProfile(ctx, b), pkgerrors.ErrOptimisticLock)

	got, err := repo.User.GetByDiscordID(ctx, "80351110224678912")
	require.NoError(t, err)
	require.Equal(t, "first", got.Bio)
}

func TestUserRepo_DuplicateDiscordID(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.User.Create(ctx, &model.User{DiscordID: "1", Username: "a", Role: model.RoleUser}))
	err := repo.User.Create(ctx, &model.User{DiscordID: "1", Username: "b", Role: model.RoleUser})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepo_AdminColumnsAndList(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()

	alice := &model.User{DiscordID: "1", Username: "Alice", Role: model.RoleUser}
	bob := &model.User{DiscordID: "2", Username: "bob", Role: model.RoleUser}
	require.NoError(t, repo.User.Create(ctx, alice))
	require.NoError(t, repo.User.Create(ctx, bob))

	require.NoError(t, repo.User.SetRole(ctx, alice.UserID, model.RoleModerator, bob.UserID))
	require.NoError(t, repo.User.SetBanned(ctx, bob.UserID, true, "spam", alice.UserID))
	require.ErrorIs(t, repo.User.SetRole(ctx, model.NewID(), model.RoleAdmin, bob.UserID), gorm.ErrRecordNotFound)

	banned := true
	list, total, err := repo.User.List(ctx, repository.UserFilter{Banned: &banned}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "spam", list[0].BanReason)

	list, total, err = repo.User.List(ctx, repository.UserFilter{Keyword: "ali"}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, model.RoleModerator, list[0].Role)
	require.Equal(t, 2, list[0].Version)

	require.NoError(t, repo.User.SetBanned(ctx, bob.UserID, false, "ignored", alice.UserID))
	got, err := repo.User.GetByID(ctx, bob.UserID)
	require.NoError(t, err)
	require.False(t, got.Banned)
	require.Empty(t, got.BanReason)
}
