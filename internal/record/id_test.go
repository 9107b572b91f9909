package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_NumericStringMatchesNumber(t *testing.T) {
	a := NewID("7")
	b := NumericID(7)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.Equal(t, "7", a.Key())
	assert.Equal(t, a.Key(), b.Key())
}

func TestID_LeadingZerosNormalize(t *testing.T) {
	a := NewID("042")
	b := NewID("42")

	assert.True(t, a.Equal(b))
	assert.Equal(t, "42", a.Key())
	// literal rendering is preserved
	assert.Equal(t, "042", a.String())
}

func TestID_StringKeysCompareLiterally(t *testing.T) {
	a := NewID("cust-001")
	b := NewID("cust-001")
	c := NewID("cust-002")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	_, isNum := a.Numeric()
	assert.False(t, isNum)
	assert.Equal(t, "cust-001", a.Key())
}

func TestIDFromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want ID
	}{
		{"string", "abc", NewID("abc")},
		{"numeric string", "12", NumericID(12)},
		{"json number", float64(12), NumericID(12)},
		{"int64", int64(5), NumericID(5)},
		{"int", 5, NumericID(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IDFromAny(tt.in)
			require.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}

	assert.True(t, IDFromAny(nil).IsZero())
}

func TestRecord_Recency(t *testing.T) {
	r := Record{CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-06-01T00:00:00Z"}
	assert.Equal(t, "2024-06-01T00:00:00Z", r.Recency())

	r.UpdatedAt = ""
	assert.Equal(t, "2024-01-01T00:00:00Z", r.Recency())

	r.CreatedAt = ""
	assert.Equal(t, "", r.Recency())
}

func TestCollectionsFor_RoleScoping(t *testing.T) {
	names := func(specs []CollectionSpec) map[string]CollectionSpec {
		m := make(map[string]CollectionSpec, len(specs))
		for _, s := range specs {
			m[s.Name] = s
		}
		return m
	}

	admin := names(CollectionsFor(RoleAdmin))
	require.Len(t, admin, 9)

	employee := names(CollectionsFor(RoleEmployee))
	require.Contains(t, employee, CollectionAttendance)
	require.NotContains(t, employee, CollectionOrders)
	assert.Equal(t, "employeeId", employee[CollectionAdvances].OwnerField)
	assert.True(t, employee[CollectionAdvances].Scoped())
	assert.False(t, employee[CollectionProducts].Scoped())

	customer := names(CollectionsFor(RoleCustomer))
	require.Contains(t, customer, CollectionCredits)
	require.NotContains(t, customer, CollectionAttendance)
	assert.Equal(t, "customerId", customer[CollectionOrders].OwnerField)
}
