package handlers

import (
	"net/http"
	"strings"

	"github.com/wememory/backend/internal/access"
	"github.com/wememory/backend/internal/models"
)

// bearerToken extracts the access token from the Authorization header, or
// returns the empty string when none is supplied.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// viewerFromRequest resolves the request's bearer token to a viewer scope.
// Requests without a valid session read as anonymous; reads never fail on a
// bad token, they just see less.
func viewerFromRequest(r *http.Request, sessions SessionService) (access.Viewer, *models.AuthUser) {
	if sessions == nil {
		return access.Anonymous(), nil
	}

	user := sessions.CurrentUser(r.Context(), bearerToken(r))
	if user == nil {
		return access.Anonymous(), nil
	}

	return access.User(user.ID), user
}
