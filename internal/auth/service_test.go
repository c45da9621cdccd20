package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wememory/backend/internal/models"
)

type inMemoryUserStore struct {
	byEmail map[string]models.User
	byID    map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]models.User),
	}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return ErrAccountExists
	}
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return models.User{}, ErrAccountNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, ErrAccountNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) add(t *testing.T, email, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{ID: "user-" + email, Email: email, Password: string(hashed)}
	s.byEmail[email] = user
	s.byID[user.ID] = user
	return user
}

func newTestService(t *testing.T) (*Service, *inMemoryUserStore) {
	t.Helper()
	users := newInMemoryUserStore()
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore())
	return NewService(users, manager), users
}

func TestServiceSignInWithEmail(t *testing.T) {
	service, users := newTestService(t)
	users.add(t, "alice@example.com", "password123")

	identity, tokens, err := service.SignIn(context.Background(), models.EmailCredentials{
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", tokens)
	}
}

func TestServiceSignInRejectsBadCredentials(t *testing.T) {
	service, users := newTestService(t)
	users.add(t, "bob@example.com", "correct-password")

	cases := []models.EmailCredentials{
		{Email: "bad@x.com", Password: "wrong"},
		{Email: "bob@example.com", Password: "wrong"},
		{Email: "", Password: ""},
	}

	for _, creds := range cases {
		if _, _, err := service.SignIn(context.Background(), creds); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", creds, err)
		}
	}
}

func TestServiceSignInWalletFailsFast(t *testing.T) {
	service, _ := newTestService(t)

	_, _, err := service.SignIn(context.Background(), models.WalletCredentials{WalletAddress: "0xabc"})
	if !errors.Is(err, ErrWalletAuthNotImplemented) {
		t.Fatalf("expected wallet auth not implemented, got %v", err)
	}

	_, _, err = service.SignUp(context.Background(), models.WalletCredentials{WalletAddress: "0xabc"})
	if !errors.Is(err, ErrWalletAuthNotImplemented) {
		t.Fatalf("expected wallet auth not implemented on sign-up, got %v", err)
	}
}

func TestServiceSignUp(t *testing.T) {
	service, users := newTestService(t)

	identity, tokens, err := service.SignUp(context.Background(), models.EmailCredentials{
		Email:    "new@example.com",
		Password: "supersafe",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatal("expected access token")
	}

	stored, err := users.FindByEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("expected account to be stored: %v", err)
	}
	if stored.ID != identity.ID {
		t.Fatalf("identity mismatch: %s vs %s", stored.ID, identity.ID)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}

	if _, _, err := service.SignUp(context.Background(), models.EmailCredentials{
		Email:    "new@example.com",
		Password: "supersafe",
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestServiceSignUpValidation(t *testing.T) {
	service, _ := newTestService(t)

	cases := []models.EmailCredentials{
		{Email: "not-an-email", Password: "longenough"},
		{Email: "short@example.com", Password: "short"},
		{Email: "", Password: ""},
	}

	for _, creds := range cases {
		if _, _, err := service.SignUp(context.Background(), creds); !errors.Is(err, ErrInvalidSignUp) {
			t.Fatalf("expected ErrInvalidSignUp for %+v, got %v", creds, err)
		}
	}
}

func TestServiceCurrentUser(t *testing.T) {
	service, users := newTestService(t)
	users.add(t, "carol@example.com", "password123")

	// No session: nil, never an error.
	if user := service.CurrentUser(context.Background(), ""); user != nil {
		t.Fatalf("expected nil for absent session, got %+v", user)
	}
	if user := service.CurrentUser(context.Background(), "bogus-token"); user != nil {
		t.Fatalf("expected nil for unknown token, got %+v", user)
	}

	_, tokens, err := service.SignIn(context.Background(), models.EmailCredentials{
		Email:    "carol@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	user := service.CurrentUser(context.Background(), tokens.AccessToken)
	if user == nil || user.Email != "carol@example.com" {
		t.Fatalf("unexpected current user: %+v", user)
	}
}

func TestServiceSignOutInvalidatesSession(t *testing.T) {
	service, users := newTestService(t)
	users.add(t, "dave@example.com", "password123")

	_, tokens, err := service.SignIn(context.Background(), models.EmailCredentials{
		Email:    "dave@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if err := service.SignOut(context.Background(), tokens.AccessToken, tokens.RefreshToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if user := service.CurrentUser(context.Background(), tokens.AccessToken); user != nil {
		t.Fatalf("expected nil after sign-out, got %+v", user)
	}
}

func TestServiceSignOutSurfacesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := &flakySessionStore{SessionStore: NewInMemorySessionStore(), deleteErr: storeErr}
	service := NewService(newInMemoryUserStore(), NewManager(time.Minute, time.Hour, store))

	if err := service.SignOut(context.Background(), "access-token", "refresh-token"); !errors.Is(err, storeErr) {
		t.Fatalf("expected the store failure to surface, got %v", err)
	}
}

func TestServiceSubscription(t *testing.T) {
	service, users := newTestService(t)
	users.add(t, "eve@example.com", "password123")

	sub := service.Subscribe()
	defer sub.Close()

	identity, tokens, err := service.SignIn(context.Background(), models.EmailCredentials{
		Email:    "eve@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	select {
	case change := <-sub.C:
		if change.Event != EventSignedIn {
			t.Fatalf("expected signed_in event, got %s", change.Event)
		}
		if change.User == nil || change.User.ID != identity.ID {
			t.Fatalf("unexpected user in change: %+v", change.User)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state change")
	}

	if err := service.SignOut(context.Background(), tokens.AccessToken, tokens.RefreshToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	select {
	case change := <-sub.C:
		if change.Event != EventSignedOut {
			t.Fatalf("expected signed_out event, got %s", change.Event)
		}
		if change.User != nil {
			t.Fatalf("expected nil user on sign-out, got %+v", change.User)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sign-out change")
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	service, users := newTestService(t)
	users.add(t, "frank@example.com", "password123")

	sub := service.Subscribe()
	sub.Close()
	sub.Close() // idempotent

	if _, _, err := service.SignIn(context.Background(), models.EmailCredentials{
		Email:    "frank@example.com",
		Password: "password123",
	}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	select {
	case change := <-sub.C:
		t.Fatalf("expected no delivery after close, got %+v", change)
	default:
	}
}
