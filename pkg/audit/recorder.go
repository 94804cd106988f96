package audit

import (
	"context"
	"sync"
	"time"

	"github.com/simplycrm/simplycrm/pkg/observability"
)

// Recorder persists security events.
type Recorder interface {
	Record(ctx context.Context, event *Event) error
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, *Event) error { return nil }

// LogRecorder emits events through the structured logger. It is the
// fallback when no database is configured.
type LogRecorder struct {
	logger *observability.Logger
}

// NewLogRecorder creates a LogRecorder.
func NewLogRecorder(logger *observability.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record implements Recorder.
func (r *LogRecorder) Record(ctx context.Context, event *Event) error {
	stamp(event)

	entry := r.logger.WithField("event", string(event.Type))
	if event.UserID != nil {
		entry = entry.WithField("user_id", *event.UserID)
	}
	if event.Username != "" {
		entry = entry.WithField("username", event.Username)
	}
	if event.OrganizationID != nil {
		entry = entry.WithField("organization_id", *event.OrganizationID)
	}
	if event.ClientIP != "" {
		entry = entry.WithField("client_ip", event.ClientIP)
	}
	if event.RequestID != "" {
		entry = entry.WithField("request_id", event.RequestID)
	}
	entry.Info("audit: " + event.Detail)
	return nil
}

// MemoryRecorder collects events in memory for tests.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []*Event
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(_ context.Context, event *Event) error {
	stamp(event)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns the recorded events.
func (r *MemoryRecorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}

// ByType returns the recorded events of one type.
func (r *MemoryRecorder) ByType(t EventType) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func stamp(event *Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
}
