// Package authz provides authorization utilities.
package authz

import (
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// ErrForbidden is returned when a verified caller is not the resource owner.
var ErrForbidden = errors.New("forbidden")

// AnonymousEmail is the fixed identity every request acts as when token
// verification is not configured. A development-mode fallback, not a
// security boundary.
const AnonymousEmail = "anonymous@localhost"

// headerLookup returns the value of a header key in a case-insensitive manner.
func headerLookup(h map[string]string, key string) string {
	if len(h) == 0 {
		return ""
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// BearerFromRequest extracts the raw bearer token from the Authorization
// header of an HTTP API request. Returns "" when absent.
func BearerFromRequest(req events.APIGatewayV2HTTPRequest) string {
	auth := strings.TrimSpace(headerLookup(req.Headers, "Authorization"))
	if auth == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return auth
}

// CanModify is the single ownership predicate used by every mutating
// handler: the actor must match the presentation owner. When auth is
// inactive all callers share the anonymous identity, so ownership always
// passes.
func CanModify(authActive bool, actorEmail, ownerEmail string) bool {
	if !authActive {
		return true
	}
	return strings.EqualFold(actorEmail, ownerEmail)
}
