package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

// UserFilter admin user listing filters
type UserFilter struct {
	Keyword string
	Role    string
	Banned  *bool
}

// UserRepository user data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateLogin(ctx context.Context, user *model.User) error
	SetRole(ctx context.Context, id, role, callerID string) error
	SetBanned(ctx context.Context, id string, banned bool, reason, callerID string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByDiscordID(ctx context.Context, discordID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("discord_id = ?", discordID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	users := make([]model.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	return users, err
}

// UpdateProfile writes the user-editable columns guarded by the version counter.
func (r *userRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"global_name": user.GlobalName,
			"bio":         user.Bio,
			"website":     user.Website,
			"updated_by":  user.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

// UpdateLogin refreshes the Discord snapshot taken at login. It leaves the
// user-editable columns and the version alone so a concurrent profile edit
// is not invalidated.
func (r *userRepo) UpdateLogin(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"username":      user.Username,
			"avatar":        user.Avatar,
			"email":         user.Email,
			"role":          user.Role,
			"guild_ids":     user.GuildIDs,
			"last_login_at": user.LastLoginAt,
		}).Error
}

func (r *userRepo) SetRole(ctx context.Context, id, role, callerID string) error {
	return r.updateAdminColumns(ctx, id, map[string]interface{}{
		"role":       role,
		"updated_by": callerID,
	})
}

func (r *userRepo) SetBanned(ctx context.Context, id string, banned bool, reason, callerID string) error {
	if !banned {
		reason = ""
	}
	return r.updateAdminColumns(ctx, id, map[string]interface{}{
		"banned":     banned,
		"ban_reason": reason,
		"updated_by": callerID,
	})
}

func (r *userRepo) updateAdminColumns(ctx context.Context, id string, values map[string]interface{}) error {
	values["version"] = gorm.Expr("version + 1")
	values["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{}).
		Scopes(
			Search(filter.Keyword, "username", "global_name", "discord_id"),
			Equals("role", filter.Role),
		)
	if filter.Banned != nil {
		db = db.Where("banned = ?", *filter.Banned)
	}
	db = db.Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}
