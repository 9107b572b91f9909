package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/logging"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/avetikov/ledgersync/internal/remote"
	"github.com/avetikov/ledgersync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type fakeSource struct {
	docs map[string]map[string]record.Record // collection -> id key -> doc
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context, tenantID, collection string, q remote.Query) ([]record.Record, error) {
	return nil, nil
}

func (f *fakeSource) FetchOne(ctx context.Context, tenantID, collection string, id record.ID) (*record.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if doc, ok := f.docs[collection][id.Key()]; ok {
		out := doc
		return &out, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeSource) Close() error { return nil }

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	s, err := store.Open(context.Background(), ":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func identityDoc(id string, payload map[string]any) map[string]map[string]record.Record {
	return map[string]map[string]record.Record{
		record.CollectionEmployees: {
			id: {ID: record.NewID(id), Collection: record.CollectionEmployees, Payload: payload},
		},
	}
}

var testSecret = []byte("test-signing-secret")

func TestAuthenticate_SaltedHash(t *testing.T) {
	src := &fakeSource{docs: identityDoc("emp-1", map[string]any{
		"passwordHash": sha256hex("pepper" + "s3cret"),
		"passwordSalt": "pepper",
		"active":       true,
	})}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	sess, err := a.Authenticate(context.Background(), "T1", "emp-1", "s3cret", record.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, "T1", sess.TenantID)
	assert.Equal(t, "emp-1", sess.IdentityID)
	assert.Equal(t, record.RoleEmployee, sess.Role)
	assert.NotEmpty(t, sess.Token)
}

func TestAuthenticate_UnsaltedHash(t *testing.T) {
	src := &fakeSource{docs: identityDoc("emp-1", map[string]any{
		"passwordHash": sha256hex("s3cret"),
	})}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	_, err := a.Authenticate(context.Background(), "T1", "emp-1", "s3cret", record.RoleEmployee)
	require.NoError(t, err)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	src := &fakeSource{docs: identityDoc("emp-1", map[string]any{
		"passwordHash": sha256hex("s3cret"),
	})}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	_, err := a.Authenticate(context.Background(), "T1", "emp-1", "nope", record.RoleEmployee)
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestAuthenticate_UnknownIdentity(t *testing.T) {
	a := NewAuthenticator(&fakeSource{}, testStore(t), testSecret, time.Hour)

	_, err := a.Authenticate(context.Background(), "T1", "ghost", "x", record.RoleEmployee)
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestAuthenticate_DisabledAccount(t *testing.T) {
	src := &fakeSource{docs: identityDoc("emp-1", map[string]any{
		"passwordHash": sha256hex("s3cret"),
		"active":       false,
	})}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	_, err := a.Authenticate(context.Background(), "T1", "emp-1", "s3cret", record.RoleEmployee)
	assert.ErrorIs(t, err, common.ErrAccountDisabled)
}

func TestAuthenticate_MissingOrMalformedHash(t *testing.T) {
	for name, payload := range map[string]map[string]any{
		"absent":    {"active": true},
		"not hex":   {"passwordHash": "zz-not-hex"},
		"wrong key": {"password": sha256hex("s3cret")},
	} {
		t.Run(name, func(t *testing.T) {
			src := &fakeSource{docs: identityDoc("emp-1", payload)}
			a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

			_, err := a.Authenticate(context.Background(), "T1", "emp-1", "s3cret", record.RoleEmployee)
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}

func TestAuthenticate_MissingTenant(t *testing.T) {
	a := NewAuthenticator(&fakeSource{}, testStore(t), testSecret, time.Hour)

	_, err := a.Authenticate(context.Background(), "", "emp-1", "s3cret", record.RoleEmployee)
	assert.ErrorIs(t, err, common.ErrMissingTenant)
}

func TestAuthenticate_RemoteFailurePassedThrough(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	_, err := a.Authenticate(context.Background(), "T1", "emp-1", "s3cret", record.RoleEmployee)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidCredential)
}

func TestAuthenticate_RolePromotion(t *testing.T) {
	src := &fakeSource{docs: identityDoc("boss", map[string]any{
		"passwordHash": sha256hex("s3cret"),
		"role":         "admin",
	})}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	sess, err := a.Authenticate(context.Background(), "T1", "boss", "s3cret", record.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, record.RoleAdmin, sess.Role)
	assert.True(t, sess.Privileged())
}

func TestAuthenticate_CustomerIdentityCollection(t *testing.T) {
	src := &fakeSource{docs: map[string]map[string]record.Record{
		record.CollectionCustomers: {
			"42": {ID: record.NewID("42"), Collection: record.CollectionCustomers,
				Payload: map[string]any{"passwordHash": sha256hex("s3cret")}},
		},
	}}
	a := NewAuthenticator(src, testStore(t), testSecret, time.Hour)

	sess, err := a.Authenticate(context.Background(), "T1", "42", "s3cret", record.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, record.RoleCustomer, sess.Role)
	assert.False(t, sess.Privileged())
}

func TestAuthenticateOffline_RoundTrip(t *testing.T) {
	src := &fakeSource{docs: identityDoc("emp-1", map[string]any{
		"passwordHash": sha256hex("s3cret"),
	})}
	local := testStore(t)
	a := NewAuthenticator(src, local, testSecret, time.Hour)
	ctx := context.Background()

	_, err := a.Authenticate(ctx, "T1", "emp-1", "s3cret", record.RoleEmployee)
	require.NoError(t, err)

	sess, err := a.AuthenticateOffline(ctx, "T1", "emp-1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", sess.IdentityID)
	assert.Equal(t, record.RoleEmployee, sess.Role)
	assert.Empty(t, sess.Token, "offline sessions carry no token")

	_, err = a.AuthenticateOffline(ctx, "T1", "emp-1", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)

	_, err = a.AuthenticateOffline(ctx, "T1", "someone-else", "s3cret")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestAuthenticateOffline_NoCache(t *testing.T) {
	a := NewAuthenticator(&fakeSource{}, testStore(t), testSecret, time.Hour)

	_, err := a.AuthenticateOffline(context.Background(), "T1", "emp-1", "s3cret")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}
