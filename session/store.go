// Package session persists signed-in dashboard sessions with expiry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bassem-o/School/models"
)

// ErrNoSession is returned when no valid session exists: missing, expired or
// unreadable rows all collapse to this.
var ErrNoSession = errors.New("no session")

type Store struct {
	db     *gorm.DB
	maxAge time.Duration
	now    func() time.Time
}

func NewStore(db *gorm.DB, maxAge time.Duration) *Store {
	return &Store{db: db, maxAge: maxAge, now: time.Now}
}

// Save creates a session for the user on the given dashboard, caching the
// profile snapshot alongside it.
func (s *Store) Save(ctx context.Context, user *models.User, dashboard string) (*models.Session, error) {
	snapshot, err := json.Marshal(user.Profile())
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	sess := &models.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		Dashboard: dashboard,
		Profile:   snapshot,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Load returns the session or ErrNoSession. Expired and corrupt rows are
// deleted as a side effect of the check.
func (s *Store) Load(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if s.now().Sub(sess.CreatedAt) > s.maxAge {
		_ = s.Clear(ctx, id)
		return nil, ErrNoSession
	}
	if len(sess.Profile) > 0 && !json.Valid(sess.Profile) {
		_ = s.Clear(ctx, id)
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Clear deletes the session unconditionally; deleting a missing session is
// not an error.
func (s *Store) Clear(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error
}

// UpdateProfile refreshes the cached snapshot after a credentials change.
func (s *Store) UpdateProfile(ctx context.Context, id string, profile models.Profile) error {
	snapshot, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).Update("profile", snapshot).Error
}

// Profile decodes the cached snapshot. A missing snapshot yields ok=false
// rather than an error; callers then fall back to a users lookup.
func Profile(sess *models.Session) (models.Profile, bool) {
	if sess == nil || len(sess.Profile) == 0 {
		return models.Profile{}, false
	}
	var p models.Profile
	if err := json.Unmarshal(sess.Profile, &p); err != nil {
		return models.Profile{}, false
	}
	return p, true
}
