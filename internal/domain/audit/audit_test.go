package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/platform/events"
	"leavestride/internal/requestctx"
)

type capturePublisher struct {
	events []events.Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

func TestRecordPublishesEntry(t *testing.T) {
	pub := &capturePublisher{}
	svc := New(pub)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return at }

	svc.Record(context.Background(), Entry{ActorID: "admin", Action: ActionHolidayCreate, EntityType: EntityHoliday, EntityID: "h1"})

	require.Len(t, pub.events, 1)
	assert.Equal(t, "audit.holiday.create", pub.events[0].Type)
	assert.Equal(t, "h1", pub.events[0].AggregateID)
	entry, ok := pub.events[0].Payload.(Entry)
	require.True(t, ok)
	assert.Equal(t, at, entry.At)
}

func TestRecordSwallowsPublishErrors(t *testing.T) {
	svc := New(&capturePublisher{err: errors.New("broker down")})
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), Entry{Action: ActionUserDelete, EntityType: EntityUser, EntityID: "u1"})
	})
	assert.NotNil(t, New(nil).Publisher)
}

func TestRecordStampsRequestMeta(t *testing.T) {
	pub := &capturePublisher{}
	svc := New(pub)
	ctx := requestctx.With(context.Background(), requestctx.Meta{RequestID: "req-7", ClientIP: "198.51.100.7"})

	svc.Record(ctx, Entry{Action: ActionUserCreate, EntityType: EntityUser, EntityID: "u1"})
	svc.Record(ctx, Entry{Action: ActionUserUpdate, EntityType: EntityUser, EntityID: "u1", RequestID: "explicit", IP: "10.0.0.1"})

	require.Len(t, pub.events, 2)
	first := pub.events[0].Payload.(Entry)
	assert.Equal(t, "req-7", first.RequestID)
	assert.Equal(t, "198.51.100.7", first.IP)
	second := pub.events[1].Payload.(Entry)
	assert.Equal(t, "explicit", second.RequestID)
	assert.Equal(t, "10.0.0.1", second.IP)
}
