package audit

import (
	"context"
	"log/slog"
	"time"

	"leavestride/internal/platform/events"
	"leavestride/internal/requestctx"
)

const (
	ActionUserCreate     = "user.create"
	ActionUserUpdate     = "user.update"
	ActionUserPassword   = "user.password"
	ActionUserActivate   = "user.activate"
	ActionUserDeactivate = "user.deactivate"
	ActionUserDelete     = "user.delete"
	ActionHolidayCreate  = "holiday.create"
	ActionHolidayDelete  = "holiday.delete"
	ActionHolidayImport  = "holiday.import"
)

const (
	EntityUser    = "user"
	EntityHoliday = "holiday"
)

type Entry struct {
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	RequestID  string    `json:"requestId,omitempty"`
	IP         string    `json:"ip,omitempty"`
	At         time.Time `json:"at"`
	Before     any       `json:"before,omitempty"`
	After      any       `json:"after,omitempty"`
}

// Service keeps the trail of administrative mutations as log records and events.
type Service struct {
	Publisher events.Publisher
	Now       func() time.Time
}

func New(publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{Publisher: publisher, Now: time.Now}
}

// Record never fails the caller; publish errors are logged. Request id and client IP
// default to the values carried by ctx.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if entry.At.IsZero() {
		entry.At = s.Now().UTC()
	}
	meta := requestctx.From(ctx)
	if entry.RequestID == "" {
		entry.RequestID = meta.RequestID
	}
	if entry.IP == "" {
		entry.IP = meta.ClientIP
	}
	slog.InfoContext(ctx, "audit",
		"action", entry.Action,
		"actor_id", entry.ActorID,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
		"request_id", entry.RequestID,
		"ip", entry.IP,
	)
	if err := s.Publisher.Publish(ctx, events.New("audit."+entry.Action, entry.EntityID, entry)); err != nil {
		slog.Warn("audit publish failed", "action", entry.Action, "entity_id", entry.EntityID, "err", err)
	}
}
