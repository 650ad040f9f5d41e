package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
)

// RoleSet is the set of role tags decoded from an access token.
type RoleSet map[string]struct{}

// Has reports whether the set contains the given role.
func (r RoleSet) Has(role string) bool {
	_, ok := r[role]
	return ok
}

// IsAdmin reports whether destructive and structural actions (delete,
// bulk operations, create/edit of works, authors, topics) are allowed.
func (r RoleSet) IsAdmin() bool {
	return r.Has(RoleAdmin)
}

// CanModerate reports whether moderator-level views are allowed.
// Moderators may view and edit content entities but not delete them or
// run bulk actions.
func (r RoleSet) CanModerate() bool {
	return r.Has(RoleAdmin) || r.Has(RoleModerator)
}

// RolesFromToken decodes the "roles" claim from a bearer token.
// The token is parsed without signature verification; the backend is
// the authority, this only gates UI affordances. Any malformed or
// missing token yields an empty set, never an error.
func RolesFromToken(token string) RoleSet {
	roles := RoleSet{}
	if token == "" {
		return roles
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return roles
	}

	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return roles
	}
	for _, entry := range raw {
		if role, ok := entry.(string); ok && role != "" {
			roles[role] = struct{}{}
		}
	}
	return roles
}

// SessionFromToken rebuilds a session from a stored access token,
// recovering the user identity from the standard claims. Returns nil
// for empty or undecodable tokens.
func SessionFromToken(token string) *Session {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}

	session := &Session{AccessToken: token}
	if sub, ok := claims["sub"].(string); ok {
		session.User.ID = sub
	}
	if email, ok := claims["email"].(string); ok {
		session.User.Email = email
	}
	return session
}

// RolesFromSession is a convenience wrapper for a possibly-nil session.
func RolesFromSession(session *Session) RoleSet {
	if session == nil {
		return RoleSet{}
	}
	return RolesFromToken(session.AccessToken)
}
