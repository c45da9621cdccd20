package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestManagerIssueAndResolve(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	userID, err := manager.Resolve(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %s", userID)
	}

	// A refresh token is not an access token.
	if _, err := manager.Resolve(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found resolving refresh token, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore())
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshRotatesTokens(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
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
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old refresh token should have been removed")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Millisecond, store)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("expired refresh token should have been removed")
	}
}

func TestManagerResolveExpiredAccessToken(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Millisecond, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Resolve(context.Background(), tokens.AccessToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found for expired token, got %v", err)
	}
	if store.Has(tokens.AccessToken) {
		t.Fatal("expired access token should have been removed")
	}
}

func TestManagerRevoke(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), tokens.AccessToken, tokens.RefreshToken, ""); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if store.Has(tokens.AccessToken) || store.Has(tokens.RefreshToken) {
		t.Fatal("expected revoked tokens to be removed")
	}
}

type flakySessionStore struct {
	SessionStore
	deleteErr error
}

func (s *flakySessionStore) Delete(ctx context.Context, token string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.SessionStore.Delete(ctx, token)
}

func TestManagerRevokeToleratesMissingTokens(t *testing.T) {
	store := &flakySessionStore{SessionStore: NewInMemorySessionStore(), deleteErr: ErrSessionNotFound}
	manager := NewManager(time.Minute, time.Hour, store)

	if err := manager.Revoke(context.Background(), "gone-token"); err != nil {
		t.Fatalf("expected already-deleted tokens to be ignored, got %v", err)
	}
}

func TestManagerRevokeSurfacesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := &flakySessionStore{SessionStore: NewInMemorySessionStore(), deleteErr: storeErr}
	manager := NewManager(time.Minute, time.Hour, store)

	if err := manager.Revoke(context.Background(), "some-token"); !errors.Is(err, storeErr) {
		t.Fatalf("expected the store failure to surface, got %v", err)
	}
}
