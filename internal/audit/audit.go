// Package audit records security-relevant events: logins, grants,
// revocations, account changes. The desktop-era deployment wrote
// these to a DynamoDB audit table; here the default sink is the
// structured log, with the Recorder seam left open for a store-backed
// sink.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is one audit entry. Actor is who did it, Target who or what
// it was done to.
type Event struct {
	ID     string
	Time   time.Time
	Action string
	Actor  string
	Target string
	Detail map[string]string
}

// Recorder accepts audit events. Implementations must not block the
// calling operation on sink failures; auditing is best effort.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// logRecorder writes events as structured log lines.
type logRecorder struct {
	lg *slog.Logger
}

// NewLogRecorder returns a Recorder that emits one info-level line
// per event.
func NewLogRecorder(lg *slog.Logger) Recorder {
	if lg == nil {
		lg = slog.Default()
	}
	return &logRecorder{lg: lg}
}

func (r *logRecorder) Record(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	attrs := []any{
		"audit_id", ev.ID,
		"action", ev.Action,
		"actor", ev.Actor,
		"target", ev.Target,
	}
	for k, v := range ev.Detail {
		attrs = append(attrs, k, v)
	}
	r.lg.Log(ctx, slog.LevelInfo, "audit", attrs...)
}

// nopRecorder drops events; tests use it.
type nopRecorder struct{}

func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) Record(context.Context, Event) {}
