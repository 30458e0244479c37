package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapGetString(t *testing.T) {
	m := JSONMap{
		"unified_status":     "delivered",
		"declaration_number": "20450000000000",
		"empty":              "",
		"null_value":         nil,
		"number":             42.0,
	}

	status, ok := m.GetUnifiedStatus()
	assert.True(t, ok)
	assert.Equal(t, "delivered", status)

	ttn, ok := m.GetDeclarationNumber()
	assert.True(t, ok)
	assert.Equal(t, "20450000000000", ttn)

	_, ok = m.GetString("missing")
	assert.False(t, ok)
	_, ok = m.GetString("empty")
	assert.False(t, ok)
	_, ok = m.GetString("null_value")
	assert.False(t, ok)
	_, ok = m.GetString("number")
	assert.False(t, ok)

	var nilMap JSONMap
	_, ok = nilMap.GetUnifiedStatus()
	assert.False(t, ok)
}

func TestJSONMapScanRoundTrip(t *testing.T) {
	src := JSONMap{"amount": "5.00", "currency": "UAH"}

	value, err := src.Value()
	require.NoError(t, err)

	var dst JSONMap
	require.NoError(t, dst.Scan(value))
	assert.Equal(t, src, dst)

	// NULL column yields an empty, usable map.
	var fromNull JSONMap
	require.NoError(t, fromNull.Scan(nil))
	assert.NotNil(t, fromNull)
	assert.Empty(t, fromNull)
}

func TestSyncSummaryString(t *testing.T) {
	s := SyncSummary{Fetched: 5, Created: 2, Updated: 3}
	assert.Equal(t, "imported 5 orders: 2 new, 3 updated", s.String())
}
