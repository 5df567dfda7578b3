package vecindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/labaid/labaid/internal/store"
)

// TestMissingEntries_FiltersExistingKeys covers the idempotent-upsert filter:
// an index already holding keys 1, 2, 3 offered keys 2, 3, 4 accepts only 4.
func TestMissingEntries_FiltersExistingKeys(t *testing.T) {
	existing := map[store.ChunkKey]struct{}{
		1: {},
		2: {},
		3: {},
	}
	entries := []Entry{
		{Key: 2, Text: "two"},
		{Key: 3, Text: "three"},
		{Key: 4, Text: "four"},
	}

	missing := missingEntries(entries, existing)

	assert.Len(t, missing, 1)
	assert.Equal(t, store.ChunkKey(4), missing[0].Key)
	assert.Equal(t, "four", missing[0].Text)
}

func TestMissingEntries_AllNew(t *testing.T) {
	entries := []Entry{{Key: 10}, {Key: 11}}

	missing := missingEntries(entries, map[store.ChunkKey]struct{}{})

	assert.Equal(t, entries, missing)
}

func TestMissingEntries_PreservesOrder(t *testing.T) {
	existing := map[store.ChunkKey]struct{}{2: {}}
	entries := []Entry{{Key: 3}, {Key: 2}, {Key: 1}}

	missing := missingEntries(entries, existing)

	assert.Equal(t, []Entry{{Key: 3}, {Key: 1}}, missing)
}

func TestMissingEntries_Empty(t *testing.T) {
	assert.Empty(t, missingEntries(nil, map[store.ChunkKey]struct{}{1: {}}))
}
