package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/session"
)

func seedUser(t *testing.T, db *gorm.DB, username, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		Email:        username + "@school.example",
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Name:         "أ. " + username,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func newAuth(db *gorm.DB, profileTimeout time.Duration) (*AuthService, *session.Store) {
	sessions := session.NewStore(db, 24*time.Hour)
	return NewAuthService(db, sessions, "test-secret", 24*time.Hour, profileTimeout), sessions
}

func TestSignIn_Success(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	sess, profile, token, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if profile.Role != models.RoleTeacher {
		t.Fatalf("profile role = %q, want teacher", profile.Role)
	}

	// the session must be persisted with the matching role snapshot
	var stored models.Session
	if err := db.First(&stored, "id = ?", sess.ID).Error; err != nil {
		t.Fatalf("session row not written: %v", err)
	}
	snap, ok := session.Profile(&stored)
	if !ok || snap.Role != models.RoleTeacher {
		t.Fatalf("stored snapshot role = %+v", snap)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	_, _, _, err := svc.SignIn(context.Background(), "teacher1", "wrong", models.DashboardTeacher)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	var n int64
	db.Model(&models.Session{}).Count(&n)
	if n != 0 {
		t.Fatal("no session may be written on a failed sign-in")
	}
}

func TestSignIn_RoleMismatch(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	// a teacher cannot sign in to the admin dashboard
	_, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardAdmin)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignIn_UnknownUser(t *testing.T) {
	svc, _ := newAuth(testDB(t), 5*time.Second)

	_, _, _, err := svc.SignIn(context.Background(), "nobody", "whatever", models.DashboardTeacher)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGetUserProfile_UsesCachedSnapshot(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	sess, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	// mutate the row behind the cache; the snapshot must win
	db.Model(&models.User{}).Where("id = ?", u.ID).Update("name", "changed")

	profile, err := svc.GetUserProfile(context.Background(), sess)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Name != u.Name {
		t.Fatalf("expected cached name %q, got %q", u.Name, profile.Name)
	}
}

func TestGetUserProfile_TimeoutDegradesToFallback(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 0) // the lookup deadline expires immediately

	// a session without a cached snapshot forces the bounded lookup
	sess := &models.Session{ID: "bare", UserID: u.ID, Email: u.Email}

	profile, err := svc.GetUserProfile(context.Background(), sess)
	if err != nil {
		t.Fatalf("a timed-out lookup must not fail the session check: %v", err)
	}
	if !profile.IsFallback {
		t.Fatal("expected a fallback profile")
	}
	if profile.Role != models.RoleFallback {
		t.Fatalf("fallback role = %q, want least-privileged %q", profile.Role, models.RoleFallback)
	}
	if profile.ID != u.ID || profile.Email != u.Email {
		t.Fatalf("fallback must keep identity: %+v", profile)
	}
}

func TestGetUserProfile_LooksUpWhenNoSnapshot(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, sessions := newAuth(db, 5*time.Second)

	bare := &models.Session{ID: "bare", UserID: u.ID, Email: u.Email, Dashboard: models.DashboardTeacher}
	if err := db.Create(bare).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	profile, err := svc.GetUserProfile(context.Background(), bare)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Username != "teacher1" || profile.IsFallback {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// and the snapshot is cached for next time
	reloaded, err := sessions.Load(context.Background(), "bare")
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if _, ok := session.Profile(reloaded); !ok {
		t.Fatal("profile snapshot was not cached on the session")
	}
}

func TestUpdateCredentials_UsernameTaken(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "existing", "pw-existing", models.RoleTeacher)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	sess, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	_, err = svc.UpdateCredentials(context.Background(), sess, "existing", "")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUpdateCredentials_KeepingOwnUsernameIsFine(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	sess, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if _, err := svc.UpdateCredentials(context.Background(), sess, "teacher1", "new-password"); err != nil {
		t.Fatalf("re-submitting one's own username must not conflict: %v", err)
	}
}

func TestUpdateCredentials_PasswordIsHashedAndUsernameUntouched(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	sess, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	profile, err := svc.UpdateCredentials(context.Background(), sess, "", "brand-new-pass")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Username != "teacher1" {
		t.Fatalf("omitted username was changed to %q", profile.Username)
	}

	var reloaded models.User
	db.First(&reloaded, u.ID)
	if reloaded.PasswordHash == "brand-new-pass" {
		t.Fatal("password stored in cleartext")
	}
	if bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("brand-new-pass")) != nil {
		t.Fatal("stored hash does not verify the new password")
	}
}

func TestUpdateCredentials_NoFields(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, _ := newAuth(db, 5*time.Second)

	sess, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if _, err := svc.UpdateCredentials(context.Background(), sess, "", ""); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
}

func TestSignOut_RevokesSession(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "teacher1", "secret-pass", models.RoleTeacher)
	svc, sessions := newAuth(db, 5*time.Second)

	sess, _, _, err := svc.SignIn(context.Background(), "teacher1", "secret-pass", models.DashboardTeacher)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	svc.SignOut(context.Background(), sess.ID)
	if _, err := sessions.Load(context.Background(), sess.ID); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after sign-out, got %v", err)
	}

	// signing out twice must not blow up
	svc.SignOut(context.Background(), sess.ID)
}
