package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(accessTTL, refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	store := NewInMemorySessionStore()
	return NewManager("access-secret", "refresh-secret", accessTTL, refreshTTL, store), store
}

func TestManagerIssueAndVerify(t *testing.T) {
	manager, store := newTestManager(time.Minute, time.Hour)
	subject := Subject{ID: "user-1", Email: "alice@example.com", Username: "alice", FullName: "Alice"}

	tokens, err := manager.Issue(context.Background(), subject)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if !store.Has("user-1") {
		t.Fatal("expected refresh token to be stored")
	}

	got, err := manager.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != subject {
		t.Fatalf("unexpected subject %+v", got)
	}

	if _, err := manager.Verify(tokens.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not pass as access token, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)
	if _, err := manager.Issue(context.Background(), Subject{}); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerVerifyFailures(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)

	if _, err := manager.Verify(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected missing got %v", err)
	}
	if _, err := manager.Verify("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), Subject{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	if _, err := manager.Verify(tokens.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired got %v", err)
	}

	other := NewManager("different", "refresh-secret", time.Minute, time.Hour, NewInMemorySessionStore())
	if _, err := other.Verify(tokens.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid signature got %v", err)
	}
}

func TestManagerRefreshRotates(t *testing.T) {
	manager, store := newTestManager(time.Minute, time.Hour)
	store.Register(Subject{ID: "user-1", Username: "alice"})

	tokens, err := manager.Issue(context.Background(), Subject{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}

	subject, err := manager.Verify(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("verify refreshed: %v", err)
	}
	if subject.Username != "alice" {
		t.Fatalf("expected profile claims to survive refresh got %+v", subject)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenReused) {
		t.Fatalf("expected reuse to be rejected got %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)

	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), Subject{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found after revoke got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), Subject{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected refresh expired got %v", err)
	}
}
