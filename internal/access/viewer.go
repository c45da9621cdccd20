// Package access defines the viewer identity used to scope read queries.
//
// The policy is deliberately narrow: anonymous viewers see public rows only,
// identified viewers additionally see rows they own. Group visibility is
// stored but never widens access beyond the owner.
package access

// Viewer identifies who is asking for data. The zero value is anonymous.
type Viewer struct {
	userID string
}

// Anonymous returns a viewer with no identity.
func Anonymous() Viewer {
	return Viewer{}
}

// User returns a viewer carrying the provided user identity. An empty id
// yields an anonymous viewer.
func User(id string) Viewer {
	return Viewer{userID: id}
}

// UserID returns the viewer's identity and whether one is present.
func (v Viewer) UserID() (string, bool) {
	return v.userID, v.userID != ""
}

// OwnerParam returns the value to bind for an owner-equality predicate:
// the user id for identified viewers, nil for anonymous ones. Comparing a
// column against NULL never matches, so a single
// (visibility = 'public' OR owner = $n) predicate serves both cases.
func (v Viewer) OwnerParam() *string {
	if v.userID == "" {
		return nil
	}
	id := v.userID
	return &id
}
