package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "laptoprag.chat.answered", Subject("laptoprag", EventChatAnswered))
	assert.Equal(t, "catalog.seeded", Subject("", EventCatalogSeeded))
}

func TestChatAnswered_JSON(t *testing.T) {
	ev := ChatAnswered{
		SessionID:  "s-1",
		Question:   "عايز لابتوب",
		Answer:     "عندنا HP",
		ListingIDs: []string{"a", "b"},
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "s-1", got["session_id"])
	assert.Equal(t, []any{"a", "b"}, got["listing_ids"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["timestamp"])
}
