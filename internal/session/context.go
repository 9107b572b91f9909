// Package session authenticates a console user against the cloud identity
// document and produces the session context the sync engine runs under.
// The engine trusts this context completely and never re-validates it.
package session

import "github.com/avetikov/ledgersync/internal/record"

// Context carries the authenticated tenant and identity for one console
// session.
type Context struct {
	TenantID   string
	IdentityID string
	Role       record.Role

	// Token is the signed session token minted at login. Offline sessions
	// carry an empty token.
	Token string
}

// Privileged reports whether this session sees identity-scoped collections
// in full rather than filtered to its own identity.
func (c Context) Privileged() bool { return c.Role == record.RoleAdmin }
