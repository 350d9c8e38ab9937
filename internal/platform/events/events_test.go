package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEncodes(t *testing.T) {
	e := New("leave.submitted", "req-1", map[string]any{"days": 2})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.OccurredAt.IsZero())

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "leave.submitted", decoded["type"])
	assert.Equal(t, "req-1", decoded["aggregateId"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), New("x", "y", nil)))
	assert.NoError(t, p.Close())
}
