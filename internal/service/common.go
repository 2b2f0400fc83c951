package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserBanned   = errors.New("account is banned")
)

// Actor the caller of an operation. Anonymous callers have an empty UserID.
type Actor struct {
	UserID string
	Role   string
	// Staff moderators and admins: may review, read every state and remove any content
	Staff bool
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// activeUser loads the caller and rejects banned accounts.
func activeUser(ctx context.Context, repo *repository.Repository, userID string) (*model.User, error) {
	user, err := repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrUserBanned
	}
	return user, nil
}

// ── formatting ──

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func reviewInfo(r *model.ReviewFields, state model.ModerationState) dto.ReviewInfo {
	return dto.ReviewInfo{
		State:           string(state),
		SubmittedAt:     formatTime(r.SubmittedAt),
		ReviewedBy:      r.ReviewedBy,
		ReviewedAt:      formatTimePtr(r.ReviewedAt),
		RejectionReason: r.RejectionReason,
	}
}
