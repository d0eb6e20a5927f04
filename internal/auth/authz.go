package auth

import "github.com/taogeht/reading-practice-app-sub000/internal/model"

// DenyReason distinguishes the two deny outcomes internally. Whether the HTTP
// layer surfaces them as distinct statuses is a configuration policy; by
// default both map to 401.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyUnauthenticated
	DenyForbidden
)

// Decision is the result of an authorization check.
type Decision struct {
	Allowed  bool
	Reason   DenyReason
	Identity *Identity
}

// Authorize is the pure guard gating every privileged operation: no identity
// denies as unauthenticated, a role outside the required set denies as
// forbidden, otherwise the identity is allowed through.
func Authorize(identity *Identity, required ...model.Role) Decision {
	if identity == nil {
		return Decision{Reason: DenyUnauthenticated}
	}
	for _, role := range required {
		if identity.Role == role {
			return Decision{Allowed: true, Identity: identity}
		}
	}
	return Decision{Reason: DenyForbidden, Identity: identity}
}
