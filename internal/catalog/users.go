package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/toast"
	"skillhub/internal/validation"
)

type UserAPI interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, id string, u skillhub.UserUpdate) error
	DeleteUser(ctx context.Context, id string) error
}

type Users struct {
	api     UserAPI
	sess    session.Session
	toaster toast.Toaster
	log     zerolog.Logger
}

func NewUsers(api UserAPI, sess session.Session, toaster toast.Toaster, log zerolog.Logger) *Users {
	if toaster == nil {
		toaster = toast.Discard{}
	}
	return &Users{api: api, sess: sess, toaster: toaster, log: log.With().Str("component", "users").Logger()}
}

func (u *Users) List(ctx context.Context) ([]models.User, error) {
	users, err := u.api.ListUsers(ctx)
	if err != nil {
		u.log.Error().Err(err).Msg("list users")
		u.toaster.Error("Failed to load users")
		return nil, err
	}
	return users, nil
}

func (u *Users) Get(ctx context.Context, id string) (models.User, error) {
	user, err := u.api.GetUser(ctx, id)
	if err != nil {
		u.log.Error().Err(err).Str("user_id", id).Msg("get user")
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return models.User{}, apperrors.NewNotFoundError("User not found")
		}
		u.toaster.Error("Failed to load user")
		return models.User{}, err
	}
	return user, nil
}

// SetRole changes a user's platform role. Admins only; an admin cannot
// demote themselves.
func (u *Users) SetRole(ctx context.Context, id, role string) error {
	if !u.sess.IsAdmin() {
		return apperrors.NewForbiddenError("only admins can change roles")
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if err := validation.Var("role", role, "required,oneof=student instructor admin"); err != nil {
		return err
	}
	if id == u.sess.UserID && role != models.RoleAdmin {
		return apperrors.NewForbiddenError("admins cannot demote themselves")
	}
	if err := u.api.UpdateUser(ctx, id, skillhub.UserUpdate{Role: role}); err != nil {
		u.log.Error().Err(err).Str("user_id", id).Msg("update role")
		u.toaster.Error("Failed to update role")
		return err
	}
	u.toaster.Success("Role updated")
	return nil
}

func (u *Users) Delete(ctx context.Context, id string) error {
	if !u.sess.IsAdmin() {
		return apperrors.NewForbiddenError("only admins can delete users")
	}
	if id == u.sess.UserID {
		return apperrors.NewForbiddenError("admins cannot delete their own account")
	}
	if err := u.api.DeleteUser(ctx, id); err != nil {
		u.log.Error().Err(err).Str("user_id", id).Msg("delete user")
		u.toaster.Error("Failed to delete user")
		return err
	}
	u.toaster.Success("User deleted")
	return nil
}

// Leaderboard ranks users by points, highest first. Equal points share a
// rank and the next rank skips accordingly (1, 1, 3).
func Leaderboard(users []models.User, limit int) []models.LeaderboardEntry {
	sorted := append([]models.User(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return strings.ToLower(sorted[i].Fullname) < strings.ToLower(sorted[j].Fullname)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]models.LeaderboardEntry, 0, len(sorted))
	for i, usr := range sorted {
		rank := i + 1
		if i > 0 && usr.Points == sorted[i-1].Points {
			rank = out[i-1].Rank
		}
		out = append(out, models.LeaderboardEntry{
			Rank:     rank,
			UserID:   usr.ID,
			Fullname: usr.Fullname,
			Points:   usr.Points,
		})
	}
	return out
}

// Leaderboard fetches every user and ranks them.
func (u *Users) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	users, err := u.List(ctx)
	if err != nil {
		return nil, err
	}
	return Leaderboard(users, limit), nil
}
