package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UserHeader carries the authenticated user ID set by the gateway.
const UserHeader = "X-User-ID"

var ErrUnauthenticated = errors.New("httpapi: unauthenticated")

// UserIDFunc returns the authenticated user of r.
type UserIDFunc func(r *http.Request) (uuid.UUID, error)

// HeaderUserID reads the user ID from UserHeader.
func HeaderUserID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(UserHeader))
	if raw == "" {
		return uuid.Nil, ErrUnauthenticated
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}
