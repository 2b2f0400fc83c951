package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

func TestUserService_UpdateProfile(t *testing.T) {
	f := setupFixture(t)
	u := f.seedUser(t, model.RoleUser)

	me, err := f.svc.User.GetMe(f.ctx, u.UserID)
	require.NoError(t, err)

	bio := "FiveM developer since 2019"
	got, err := f.svc.User.UpdateProfile(f.ctx, &dto.UpdateProfileRequest{Bio: &bio, Version: me.Version}, actorOf(u))
	require.NoError(t, err)
	require.Equal(t, bio, got.Bio)
	require.Equal(t, me.Version+1, got.Version)

	// a second tab still holding the old version loses
	site := "https://crux.dev"
	_, err = f.svc.User.UpdateProfile(f.ctx, &dto.UpdateProfileRequest{Website: &site, Version: me.Version}, actorOf(u))
	require.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)

	stored, err := f.svc.User.GetMe(f.ctx, u.UserID)
	require.NoError(t, err)
	require.Equal(t, bio, stored.Bio)
	require.Empty(t, stored.Website)
}

func TestUserService_PublicProfile(t *testing.T) {
	f := setupFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	mod := f.seedUser(t, model.RoleModerator)

	f.approvedScript(t, seller, mod, "Public Script")
	_, err := f.svc.Script.Submit(f.ctx, scriptRequest("Hidden Draft"), actorOf(seller))
	require.NoError(t, err)

	profile, err := f.svc.User.PublicProfile(f.ctx, seller.UserID)
	require.NoError(t, err)
	require.Equal(t, seller.Username, profile.User.Username)
	require.Len(t, profile.Scripts, 1)
	require.Equal(t, "Public Script", profile.Scripts[0].Title)
	require.Empty(t, profile.Giveaways)

	_, err = f.svc.User.PublicProfile(f.ctx, model.NewID())
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_SetRole(t *testing.T) {
	f := setupFixture(t)
	admin := f.seedUser(t, model.RoleAdmin)
	u := f.seedUser(t, model.RoleUser)

	got, err := f.svc.User.SetRole(f.ctx, u.UserID, &dto.SetRoleRequest{Role: model.RoleModerator}, actorOf(admin))
	require.NoError(t, err)
	require.Equal(t, model.RoleModerator, got.Role)

	_, err = f.svc.User.SetRole(f.ctx, admin.UserID, &dto.SetRoleRequest{Role: model.RoleUser}, actorOf(admin))
	require.ErrorIs(t, err, ErrUserSelfRoleChange)

	_, err = f.svc.User.SetRole(f.ctx, u.UserID, &dto.SetRoleRequest{Role: "owner"}, actorOf(admin))
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.svc.User.SetRole(f.ctx, model.NewID(), &dto.SetRoleRequest{Role: model.RoleUser}, actorOf(admin))
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_SetBanned(t *testing.T) {
	f := setupFixture(t)
	admin := f.seedUser(t, model.RoleAdmin)
	u := f.seedUser(t, model.RoleUser)

	got, err := f.svc.User.SetBanned(f.ctx, u.UserID, &dto.BanRequest{Banned: true, Reason: "scam listings"}, actorOf(admin))
	require.NoError(t, err)
	require.True(t, got.Banned)
	require.Equal(t, "scam listings", got.BanReason)

	_, err = f.svc.Script.Submit(f.ctx, scriptRequest("After Ban"), actorOf(u))
	require.ErrorIs(t, err, ErrUserBanned)

	got, err = f.svc.User.SetBanned(f.ctx, u.UserID, &dto.BanRequest{Banned: false}, actorOf(admin))
	require.NoError(t, err)
	require.False(t, got.Banned)

	_, err = f.svc.User.SetBanned(f.ctx, admin.UserID, &dto.BanRequest{Banned: true, Reason: "oops"}, actorOf(admin))
	require.ErrorIs(t, err, ErrUserSelfBan)
}

func TestUserService_List(t *testing.T) {
	f := setupFixture(t)
	admin := f.seedUser(t, model.RoleAdmin)
	f.seedUser(t, model.RoleUser)
	mod := f.seedUser(t, model.RoleModerator)

	list, total, err := f.svc.User.List(f.ctx, &dto.UserListRequest{Role: model.RoleModerator})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, mod.UserID, list[0].ID)

	banned := true
	_, err = f.svc.User.SetBanned(f.ctx, mod.UserID, &dto.BanRequest{Banned: true, Reason: "abuse"}, actorOf(admin))
	require.NoError(t, err)
	list, total, err = f.svc.User.List(f.ctx, &dto.UserListRequest{Banned: &banned})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.True(t, list[0].Banned)
}
