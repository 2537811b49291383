package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/session"
)

// AuthService owns credential verification and role claims. The users table
// is the single source of truth; sessions carry a cached profile snapshot.
type AuthService struct {
	db             *gorm.DB
	sessions       *session.Store
	jwtSecret      string
	tokenTTL       time.Duration
	profileTimeout time.Duration
}

func NewAuthService(db *gorm.DB, sessions *session.Store, jwtSecret string, tokenTTL, profileTimeout time.Duration) *AuthService {
	return &AuthService{
		db:             db,
		sessions:       sessions,
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
		profileTimeout: profileTimeout,
	}
}

// roleFor maps a dashboard to the role it requires.
func roleFor(dashboard string) string {
	if dashboard == models.DashboardAdmin {
		return models.RoleAdmin
	}
	return models.RoleTeacher
}

// SignIn authenticates a username/password pair for one dashboard. Exactly
// one users row must match username and role, and the hash must verify;
// anything else is ErrInvalidCredentials without saying which part failed.
func (s *AuthService) SignIn(ctx context.Context, username, password, dashboard string) (*models.Session, models.Profile, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.Profile{}, "", ErrInvalidCredentials
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND role = ?", username, roleFor(dashboard)).
		Limit(2).Find(&users).Error
	if err != nil {
		return nil, models.Profile{}, "", &StoreError{Op: "sign in", Err: err}
	}
	if len(users) != 1 {
		return nil, models.Profile{}, "", ErrInvalidCredentials
	}

	user := users[0]
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, models.Profile{}, "", ErrInvalidCredentials
	}

	sess, err := s.sessions.Save(ctx, &user, dashboard)
	if err != nil {
		return nil, models.Profile{}, "", err
	}

	token, err := s.signJWT(sess.ID, user.ID, user.Role, user.Name)
	if err != nil {
		return nil, models.Profile{}, "", err
	}
	return sess, user.Profile(), token, nil
}

func (s *AuthService) signJWT(sid string, sub uint, role, name string) (string, error) {
	claims := jwt.MapClaims{
		"sid":  sid,
		"sub":  sub,
		"role": role,
		"name": name,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tk.SignedString([]byte(s.jwtSecret))
}

// GetUserProfile returns the cached snapshot when the session carries one,
// otherwise looks the user up with a bounded query. A blown deadline
// degrades to a fallback profile instead of failing the session check.
func (s *AuthService) GetUserProfile(ctx context.Context, sess *models.Session) (models.Profile, error) {
	if p, ok := session.Profile(sess); ok {
		return p, nil
	}

	lctx, cancel := context.WithTimeout(ctx, s.profileTimeout)
	defer cancel()

	var user models.User
	err := s.db.WithContext(lctx).First(&user, sess.UserID).Error
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(lctx.Err(), context.DeadlineExceeded) {
			return models.FallbackProfile(sess.UserID, sess.Email), nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, &StoreError{Op: "load profile", Err: err}
	}

	profile := user.Profile()
	if err := s.sessions.UpdateProfile(ctx, sess.ID, profile); err != nil {
		log.Printf("[auth] cache profile for session %s: %v", sess.ID, err)
	}
	return profile, nil
}

func IsAdmin(p models.Profile) bool { return p.Role == models.RoleAdmin }

// SignOut clears the session. Partial failure is logged, never surfaced.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		log.Printf("[auth] sign out %s: %v", sessionID, err)
	}
}

// CheckUsernameExists reports whether another user already holds username.
func (s *AuthService) CheckUsernameExists(ctx context.Context, username string, excludeUserID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, excludeUserID).
		Count(&n).Error
	if err != nil {
		return false, &StoreError{Op: "check username", Err: err}
	}
	return n > 0, nil
}

// UpdateCredentials changes username and/or password. Only supplied fields
// are written; the session snapshot is refreshed on success.
func (s *AuthService) UpdateCredentials(ctx context.Context, sess *models.Session, newUsername, newPassword string) (models.Profile, error) {
	newUsername = strings.TrimSpace(newUsername)
	updates := map[string]any{}

	if newUsername != "" {
		taken, err := s.CheckUsernameExists(ctx, newUsername, sess.UserID)
		if err != nil {
			return models.Profile{}, err
		}
		if taken {
			return models.Profile{}, ErrUsernameTaken
		}
		updates["username"] = newUsername
	}
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return models.Profile{}, err
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) == 0 {
		return models.Profile{}, ErrNoChanges
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", sess.UserID).Updates(updates)
	if res.Error != nil {
		return models.Profile{}, &StoreError{Op: "update credentials", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return models.Profile{}, ErrNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, sess.UserID).Error; err != nil {
		return models.Profile{}, &StoreError{Op: "reload user", Err: err}
	}

	profile := user.Profile()
	if err := s.sessions.UpdateProfile(ctx, sess.ID, profile); err != nil {
		log.Printf("[auth] refresh session %s: %v", sess.ID, err)
	}
	return profile, nil
}
