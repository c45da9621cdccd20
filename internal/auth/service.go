package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wememory/backend/internal/models"
)

var (
	// ErrInvalidCredentials indicates the email or password did not match an account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("account already exists")
	// ErrInvalidSignUp indicates the sign-up input failed validation.
	ErrInvalidSignUp = errors.New("invalid sign-up input")
	// ErrWalletAuthNotImplemented indicates the wallet flow was requested.
	// The credential shape is accepted but the flow is not built.
	ErrWalletAuthNotImplemented = errors.New("wallet-based auth not implemented")
)

const minPasswordLength = 8

// Errors a UserStore surfaces to the service. Implementations map their own
// storage failures onto these sentinels, the same way session stores map
// missing rows onto ErrSessionNotFound.
var (
	// ErrAccountNotFound indicates no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists indicates an account with the same email already exists.
	ErrAccountExists = errors.New("account exists")
)

// UserStore captures the account persistence required by the session service.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// State change events broadcast to subscribers.
const (
	EventSignedIn       = "signed_in"
	EventSignedUp       = "signed_up"
	EventSignedOut      = "signed_out"
	EventTokenRefreshed = "token_refreshed"
)

// StateChange describes a session transition. User is nil for sign-out.
type StateChange struct {
	Event string
	User  *models.AuthUser
}

// Subscription delivers session state changes on C until Close is called.
// Close is idempotent and guarantees no further sends afterwards, so it is
// safe to defer from the consumer that acquired it.
type Subscription struct {
	C <-chan StateChange

	ch      chan StateChange
	service *Service
	once    sync.Once
}

// Close detaches the subscription from the service.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.service.unsubscribe(s)
	})
}

// Service authenticates users, tracks their sessions, and notifies
// subscribers whenever the session state changes.
type Service struct {
	users    UserStore
	sessions *Manager

	mu   sync.Mutex
	subs map[*Subscription]struct{}

	nowFunc func() time.Time
}

// NewService constructs a session service over the provided stores.
func NewService(users UserStore, sessions *Manager) *Service {
	if users == nil || sessions == nil {
		panic("auth: service requires a user store and a session manager")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		subs:     make(map[*Subscription]struct{}),
	}
}

// SignIn authenticates the provided credentials and issues session tokens.
// Email credentials that fail to match an account return ErrInvalidCredentials;
// wallet credentials always return ErrWalletAuthNotImplemented.
func (s *Service) SignIn(ctx context.Context, credentials models.Credentials) (models.AuthUser, models.SessionTokens, error) {
	switch c := credentials.(type) {
	case models.EmailCredentials:
		return s.signInWithPassword(ctx, c)
	case models.WalletCredentials:
		return models.AuthUser{}, models.SessionTokens{}, ErrWalletAuthNotImplemented
	default:
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("unsupported credential type %T", credentials)
	}
}

// SignUp creates an account for the provided credentials and issues session
// tokens. Shapes and failure modes mirror SignIn.
func (s *Service) SignUp(ctx context.Context, credentials models.Credentials) (models.AuthUser, models.SessionTokens, error) {
	switch c := credentials.(type) {
	case models.EmailCredentials:
		return s.signUpWithPassword(ctx, c)
	case models.WalletCredentials:
		return models.AuthUser{}, models.SessionTokens{}, ErrWalletAuthNotImplemented
	default:
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("unsupported credential type %T", credentials)
	}
}

// SignOut revokes the provided tokens and broadcasts the sign-out. Tokens the
// store no longer holds are ignored; only a store failure surfaces as an error.
func (s *Service) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, accessToken, refreshToken); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.broadcast(StateChange{Event: EventSignedOut})
	return nil
}

// Refresh rotates a refresh token and broadcasts the new session identity.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	tokens, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if user := s.CurrentUser(ctx, tokens.AccessToken); user != nil {
		s.broadcast(StateChange{Event: EventTokenRefreshed, User: user})
	}

	return tokens, nil
}

// CurrentUser resolves an access token to its identity. It never returns an
// error: an absent, expired, or unknown session yields nil.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) *models.AuthUser {
	userID, err := s.sessions.Resolve(ctx, accessToken)
	if err != nil {
		return nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil
	}

	return &models.AuthUser{ID: user.ID, Email: user.Email}
}

// Subscribe registers a consumer for session state changes. The caller must
// Close the subscription when it no longer cares, or the service will hold
// a reference to it for its entire lifetime.
func (s *Service) Subscribe() *Subscription {
	ch := make(chan StateChange, 8)
	sub := &Subscription{C: ch, ch: ch, service: s}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	return sub
}

func (s *Service) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// broadcast delivers the change to every live subscriber. Sends never block:
// a subscriber that stopped draining its channel misses updates rather than
// stalling the authentication path.
func (s *Service) broadcast(change StateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		select {
		case sub.ch <- change:
		default:
		}
	}
}

func (s *Service) signInWithPassword(ctx context.Context, c models.EmailCredentials) (models.AuthUser, models.SessionTokens, error) {
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" || c.Password == "" {
		return models.AuthUser{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return models.AuthUser{}, models.SessionTokens{}, ErrInvalidCredentials
		}
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(c.Password)); err != nil {
		return models.AuthUser{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("issue session: %w", err)
	}

	identity := models.AuthUser{ID: user.ID, Email: user.Email}
	s.broadcast(StateChange{Event: EventSignedIn, User: &identity})

	return identity, tokens, nil
}

func (s *Service) signUpWithPassword(ctx context.Context, c models.EmailCredentials) (models.AuthUser, models.SessionTokens, error) {
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" || c.Password == "" {
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("%w: email and password are required", ErrInvalidSignUp)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("%w: invalid email address", ErrInvalidSignUp)
	}

	if len(c.Password) < minPasswordLength {
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignUp, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return models.AuthUser{}, models.SessionTokens{}, ErrEmailTaken
		}
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("create account: %w", err)
	}

	tokens, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return models.AuthUser{}, models.SessionTokens{}, fmt.Errorf("issue session: %w", err)
	}

	identity := models.AuthUser{ID: user.ID, Email: user.Email}
	s.broadcast(StateChange{Event: EventSignedUp, User: &identity})

	return identity, tokens, nil
}

// WithNowFunc overrides the time source for tests.
func (s *Service) WithNowFunc(now func() time.Time) {
	s.nowFunc = now
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
