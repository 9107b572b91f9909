package remote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScan mimics a database row with the document column set.
func fakeScan(id, owner, payload, createdAt, updatedAt string, deleted bool, version int64) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = id
		*dest[1].(*string) = owner
		*dest[2].(*[]byte) = []byte(payload)
		*dest[3].(*string) = createdAt
		*dest[4].(*string) = updatedAt
		*dest[5].(*bool) = deleted
		*dest[6].(*int64) = version
		return nil
	}
}

func TestScanDocument(t *testing.T) {
	r, err := scanDocument(fakeScan(
		"7", "emp-1", `{"name":"Rice","price":350}`,
		"2024-01-01T00:00:00Z", "2024-06-01T00:00:00Z", false, 3,
	), "products")
	require.NoError(t, err)

	assert.Equal(t, "7", r.ID.String())
	assert.True(t, r.ID.Equal(r.ID), "numeric identity survives the round trip")
	assert.Equal(t, "products", r.Collection)
	assert.Equal(t, "emp-1", r.Owner)
	assert.Equal(t, "Rice", r.Payload["name"])
	assert.Equal(t, 350.0, r.Payload["price"])
	assert.Equal(t, "2024-06-01T00:00:00Z", r.UpdatedAt)
	assert.Equal(t, int64(3), r.SyncVersion)
}

func TestScanDocument_EmptyPayload(t *testing.T) {
	r, err := scanDocument(fakeScan("x", "", "", "", "", false, 1), "areas")
	require.NoError(t, err)
	assert.Nil(t, r.Payload)
}

func TestScanDocument_CorruptPayload(t *testing.T) {
	_, err := scanDocument(fakeScan("x", "", "{not-json", "", "", false, 1), "areas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt document payload")
}

func TestScanDocument_ScanError(t *testing.T) {
	boom := errors.New("boom")
	_, err := scanDocument(func(dest ...any) error { return boom }, "areas")
	assert.ErrorIs(t, err, boom)
}
