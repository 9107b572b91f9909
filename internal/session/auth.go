package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/avetikov/ledgersync/internal/remote"
	"github.com/avetikov/ledgersync/internal/store"
)

// Metadata keys for cached offline credentials.
const (
	metaIdentity = "session.identity"
	metaRole     = "session.role"
	metaSalt     = "session.salt"
	metaVerifier = "session.verifier"
)

// Authenticator validates submitted credentials against the identity
// document stored in the cloud, and caches enough locally for offline
// re-login.
type Authenticator struct {
	source        remote.Source
	local         *store.Store
	secret        []byte
	tokenValidity time.Duration
}

// NewAuthenticator constructs an Authenticator. secret signs session tokens.
func NewAuthenticator(source remote.Source, local *store.Store, secret []byte, tokenValidity time.Duration) *Authenticator {
	return &Authenticator{source: source, local: local, secret: secret, tokenValidity: tokenValidity}
}

// identityCollection maps a console role to the collection holding its
// identity documents. Admin identities live among employees.
func identityCollection(role record.Role) string {
	if role == record.RoleCustomer {
		return record.CollectionCustomers
	}
	return record.CollectionEmployees
}

// hashCredential renders the salted (or, with an empty salt, unsalted)
// SHA-256 digest of a plaintext credential.
func hashCredential(salt, password string) []byte {
	sum := sha256.Sum256([]byte(salt + password))
	return sum[:]
}

func payloadString(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Authenticate checks the submitted credential against the identity
// document and returns the session context for this console.
//
// Error kinds: ErrInvalidCredential on an unknown identity or a hash
// mismatch, ErrAccountDisabled when the identity's status flag is inactive,
// ErrConfiguration when the document carries no usable password hash.
func (a *Authenticator) Authenticate(ctx context.Context, tenantID, identityID, password string, role record.Role) (*Context, error) {
	if tenantID == "" {
		return nil, common.ErrMissingTenant
	}

	doc, err := a.source.FetchOne(ctx, tenantID, identityCollection(role), record.NewID(identityID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if active, ok := doc.Payload["active"].(bool); ok && !active {
		return nil, common.ErrAccountDisabled
	}

	storedHash := payloadString(doc.Payload, "passwordHash")
	if storedHash == "" {
		return nil, common.ErrConfiguration
	}
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return nil, common.ErrConfiguration
	}

	salt := payloadString(doc.Payload, "passwordSalt")
	if subtle.ConstantTimeCompare(hashCredential(salt, password), stored) == 0 {
		return nil, common.ErrInvalidCredential
	}

	// Employee documents may promote the identity to the admin console.
	if r := payloadString(doc.Payload, "role"); r != "" {
		role = record.Role(r)
	}

	sess := Context{TenantID: tenantID, IdentityID: identityID, Role: role}
	token, err := GenerateToken(sess, a.secret, a.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}
	sess.Token = token

	if err := a.cacheOffline(ctx, sess, password); err != nil {
		return nil, fmt.Errorf("failed to cache offline credentials: %w", err)
	}
	return &sess, nil
}

// cacheOffline stores a locally salted verifier so the console can re-open
// without reaching the cloud. The plaintext credential is never stored.
func (a *Authenticator) cacheOffline(ctx context.Context, sess Context, password string) error {
	salt, err := common.MakeRandHexString(16)
	if err != nil {
		return err
	}
	verifier := hex.EncodeToString(hashCredential(salt, password))

	for key, value := range map[string]string{
		metaIdentity: sess.IdentityID,
		metaRole:     string(sess.Role),
		metaSalt:     salt,
		metaVerifier: verifier,
	} {
		if err := a.local.SetMeta(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// AuthenticateOffline validates the credential against the locally cached
// verifier. Offline sessions carry no token and cannot sync, but they let
// the console open against local data when the cloud is unreachable.
func (a *Authenticator) AuthenticateOffline(ctx context.Context, tenantID, identityID, password string) (*Context, error) {
	if tenantID == "" {
		return nil, common.ErrMissingTenant
	}

	cachedIdentity, err := a.local.GetMeta(ctx, metaIdentity)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredential
		}
		return nil, err
	}
	if cachedIdentity != identityID {
		return nil, common.ErrInvalidCredential
	}

	salt, err := a.local.GetMeta(ctx, metaSalt)
	if err != nil {
		return nil, common.ErrInvalidCredential
	}
	verifier, err := a.local.GetMeta(ctx, metaVerifier)
	if err != nil {
		return nil, common.ErrInvalidCredential
	}
	stored, err := hex.DecodeString(verifier)
	if err != nil {
		return nil, common.ErrConfiguration
	}
	if subtle.ConstantTimeCompare(hashCredential(salt, password), stored) == 0 {
		return nil, common.ErrInvalidCredential
	}

	role, err := a.local.GetMeta(ctx, metaRole)
	if err != nil {
		return nil, common.ErrConfiguration
	}
	return &Context{TenantID: tenantID, IdentityID: identityID, Role: record.Role(role)}, nil
}
