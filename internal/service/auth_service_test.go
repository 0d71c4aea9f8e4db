package service

import (
	"errors"
	"testing"

	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"

	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (AuthService, *gorm.DB, *recordingNotifier) {
	db := setupServiceTestDB(t, t.Name())
	notifier := &recordingNotifier{}
	return NewAuthService(repository.NewUserRepo(db), notifier), db, notifier
}

func seedLoginUser(t *testing.T, db *gorm.DB, username, password string) *model.User {
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Login User",
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginRotatesSession(t *testing.T) {
	svc, db, _ := newAuthService(t)
	user := seedLoginUser(t, db, "budi", "rahasia1")

	resp, err := svc.Login("budi", "rahasia1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token")
	}

	var reloaded model.User
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.TokenVersion == "" {
		t.Fatalf("login must rotate the token version")
	}

	// A second login invalidates the first session's version.
	firstVersion := reloaded.TokenVersion
	if _, err := svc.Login("budi", "rahasia1"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.TokenVersion == firstVersion {
		t.Fatalf("expected token version to rotate on every login")
	}
}

func TestLoginAcceptsEmailAsIdentifier(t *testing.T) {
	svc, db, _ := newAuthService(t)
	seedLoginUser(t, db, "siti", "rahasia1")

	if _, err := svc.Login("siti@example.com", "rahasia1"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, db, _ := newAuthService(t)
	seedLoginUser(t, db, "agus", "rahasia1")

	if _, err := svc.Login("agus", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login("nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, db, _ := newAuthService(t)
	user := seedLoginUser(t, db, "dormant", "rahasia1")
	if err := db.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Login("dormant", "rahasia1"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected inactive error, got %v", err)
	}
}

func TestValidateTokenStrictSession(t *testing.T) {
	svc, db, _ := newAuthService(t)
	seedLoginUser(t, db, "strict", "rahasia1")

	resp, err := svc.Login("strict", "rahasia1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.ValidateToken(resp.Token); err != nil {
		t.Fatalf("validate fresh token: %v", err)
	}

	// A new login supersedes the old token.
	if _, err := svc.Login("strict", "rahasia1"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if _, err := svc.ValidateToken(resp.Token); err == nil {
		t.Fatalf("stale token must be rejected after a newer login")
	}
}

func TestResetPassword(t *testing.T) {
	svc, db, _ := newAuthService(t)
	seedLoginUser(t, db, "reset", "oldpass1")

	if err := svc.ResetPassword("reset", "wrong", "newpass1"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected wrong password, got %v", err)
	}
	if err := svc.ResetPassword("reset", "oldpass1", "newpass1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Login("reset", "newpass1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestHeartbeatUpdatesLastSeenAndBroadcasts(t *testing.T) {
	svc, db, notifier := newAuthService(t)
	user := seedLoginUser(t, db, "alive", "rahasia1")

	if err := svc.Heartbeat(user.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	var reloaded model.User
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastSeenAt == nil {
		t.Fatalf("expected last_seen_at set")
	}
	if notifier.eventCount() != 1 {
		t.Fatalf("expected a presence broadcast")
	}
}
