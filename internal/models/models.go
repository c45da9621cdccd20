package models

import "time"

// Visibility controls who may read an event thread or memory.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityGroup   Visibility = "group"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether the visibility is one of the known tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityGroup, VisibilityPrivate:
		return true
	}
	return false
}

// EmotionTag is a closed-vocabulary label describing the affect of a memory.
type EmotionTag string

const (
	EmotionJoy       EmotionTag = "joy"
	EmotionLove      EmotionTag = "love"
	EmotionAwe       EmotionTag = "awe"
	EmotionGrief     EmotionTag = "grief"
	EmotionAnger     EmotionTag = "anger"
	EmotionFear      EmotionTag = "fear"
	EmotionSurprise  EmotionTag = "surprise"
	EmotionDisgust   EmotionTag = "disgust"
	EmotionPride     EmotionTag = "pride"
	EmotionShame     EmotionTag = "shame"
	EmotionGratitude EmotionTag = "gratitude"
	EmotionHope      EmotionTag = "hope"
	EmotionNostalgia EmotionTag = "nostalgia"
)

var emotionTags = map[EmotionTag]struct{}{
	EmotionJoy: {}, EmotionLove: {}, EmotionAwe: {}, EmotionGrief: {},
	EmotionAnger: {}, EmotionFear: {}, EmotionSurprise: {}, EmotionDisgust: {},
	EmotionPride: {}, EmotionShame: {}, EmotionGratitude: {}, EmotionHope: {},
	EmotionNostalgia: {},
}

// Valid reports whether the tag belongs to the closed emotion vocabulary.
func (t EmotionTag) Valid() bool {
	_, ok := emotionTags[t]
	return ok
}

// EventThread is a named occasion to which memories attach.
type EventThread struct {
	ID          string
	Title       string
	Description string
	Tags        []string
	StartDate   time.Time
	EndDate     *time.Time
	Latitude    *float64
	Longitude   *float64
	Address     string
	City        string
	State       string
	Visibility  Visibility
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Memory is a user-authored post, optionally attached to an event thread.
type Memory struct {
	ID          string
	EventID     *string
	Content     string
	MediaURLs   []string
	EmotionTags []EmotionTag
	Visibility  Visibility
	UserID      string
	CreatedAt   time.Time
}

// MemoryComment is a threaded comment on a memory. ParentID is nil for
// top-level comments.
type MemoryComment struct {
	ID        string
	MemoryID  string
	ParentID  *string
	Content   string
	UserID    string
	CreatedAt time.Time
}

// Participant roles and statuses for event threads.
const (
	RoleOrganizer   = "organizer"
	RoleParticipant = "participant"
	RoleInvited     = "invited"

	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusDeclined  = "declined"
)

// EventParticipant links a user to an event thread with a role and status.
type EventParticipant struct {
	ID        string
	EventID   string
	UserID    string
	Role      string
	Status    string
	CreatedAt time.Time
}

// User represents a persisted account.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthUser is the session-scoped identity handed to callers after
// authentication. WalletAddress is declared for the wallet flow, which is
// not implemented.
type AuthUser struct {
	ID            string
	Email         string
	WalletAddress string
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
