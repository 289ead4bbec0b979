package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
)

// Local storage keys shared with the web client.
const (
	KeyToken    = "token"
	KeyUserID   = "userId"
	KeyFullname = "fullname"
	KeyRole     = "role"
)

// Storage is the persisted key/value surface a session lives in.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is the authenticated identity every view reads.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Fullname string `json:"fullname"`
	Role     string `json:"role"`
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != ""
}

func (s Session) IsAdmin() bool {
	return strings.EqualFold(s.Role, models.RoleAdmin)
}

// Load reads the session from st. A missing session is the zero value.
func Load(ctx context.Context, st Storage) (Session, error) {
	var s Session
	for key, dst := range map[string]*string{
		KeyToken:    &s.Token,
		KeyUserID:   &s.UserID,
		KeyFullname: &s.Fullname,
		KeyRole:     &s.Role,
	} {
		v, _, err := st.Get(ctx, key)
		if err != nil {
			return Session{}, fmt.Errorf("load session: %w", err)
		}
		*dst = v
	}
	return s, nil
}

func Save(ctx context.Context, st Storage, s Session) error {
	for _, kv := range [][2]string{
		{KeyToken, s.Token},
		{KeyUserID, s.UserID},
		{KeyFullname, s.Fullname},
		{KeyRole, s.Role},
	} {
		if err := st.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return nil
}

// Clear removes the identity keys. Learning-time counters are kept.
func Clear(ctx context.Context, st Storage) error {
	return st.Delete(ctx, KeyToken, KeyUserID, KeyFullname, KeyRole)
}

// FromToken reads identity claims out of a JWT without verifying its
// signature; the backend remains the authority on the token.
func FromToken(token string) (Session, error) {
	token = strings.TrimSpace(token)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}
	s := Session{Token: token}
	for _, k := range []string{"userId", "id", "_id", "sub"} {
		if v, ok := claims[k]; ok {
			if id := models.IDToStr(v); id != "" {
				s.UserID = id
				break
			}
		}
	}
	if v, ok := claims["role"].(string); ok {
		s.Role = v
	}
	if v, ok := claims["fullname"].(string); ok {
		s.Fullname = v
	}
	return s, nil
}

// Merge fills empty fields of s from other.
func (s Session) Merge(other Session) Session {
	if s.Token == "" {
		s.Token = other.Token
	}
	if s.UserID == "" {
		s.UserID = other.UserID
	}
	if s.Fullname == "" {
		s.Fullname = other.Fullname
	}
	if s.Role == "" {
		s.Role = other.Role
	}
	return s
}

type contextKey struct{}

// WithContext attaches s to ctx so views resolve identity from one place.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// Require returns the authenticated session on ctx or ErrNotConnected.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok || !s.Authenticated() {
		return Session{}, apperrors.ErrNotConnected
	}
	return s, nil
}
