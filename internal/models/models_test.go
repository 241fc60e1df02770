package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExistingIndexLookupPrefersURL(t *testing.T) {
	idx := NewExistingIndex([]DestinationRecord{
		{PageID: "page-url", URL: "https://x/1", CourseName: "CS101", Title: "Other"},
		{PageID: "page-key", CourseName: "CS101", Title: "HW1"},
	})

	pageID, ok := idx.Lookup(Assignment{URL: "https://x/1", CourseName: "CS101", Title: "HW1"})
	require.True(t, ok)
	assert.Equal(t, "page-url", pageID)

	pageID, ok = idx.Lookup(Assignment{URL: "https://x/missing", CourseName: "CS101", Title: "HW1"})
	require.True(t, ok)
	assert.Equal(t, "page-key", pageID)

	pageID, ok = idx.Lookup(Assignment{CourseName: "CS101", Title: "HW1"})
	require.True(t, ok)
	assert.Equal(t, "page-key", pageID)

	_, ok = idx.Lookup(Assignment{CourseName: "CS102", Title: "HW1"})
	assert.False(t, ok)
	assert.Equal(t, 2, idx.Len())
}

func TestExistingIndexSkipsIncompleteRecords(t *testing.T) {
	idx := NewExistingIndex([]DestinationRecord{
		{PageID: "", URL: "https://x/1"},
		{PageID: "p2", CourseName: "CS101"},
	})
	assert.Empty(t, idx.ByURL)
	assert.Empty(t, idx.ByKey)
}

func TestSyncResultStatusAndCap(t *testing.T) {
	result := &SyncResult{Created: 3}
	assert.Equal(t, SyncStatusSuccess, result.Status())

	for i := 0; i < 12; i++ {
		result.Errors = append(result.Errors, SyncError{Action: SyncActionCreate})
	}
	assert.Equal(t, SyncStatusError, result.Status())
	assert.Len(t, result.CappedErrors(10), 10)
	assert.Len(t, result.CappedErrors(0), 12)
}

func TestJSONColumnsRoundTrip(t *testing.T) {
	raw, err := PhaseList{{Name: "Block A", Start: "2024-08-01", End: "2024-09-30"}}.Value()
	require.NoError(t, err)

	var phases PhaseList
	require.NoError(t, phases.Scan(raw))
	require.Len(t, phases, 1)
	assert.Equal(t, "Block A", phases[0].Name)

	raw, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)

	var list StringList
	require.NoError(t, list.Scan(nil))
	assert.Nil(t, list)
	assert.Error(t, list.Scan(42))
}
