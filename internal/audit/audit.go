// Package audit emits fire-and-forget events for every step write.
// Sink failures are logged and swallowed: audit must never fail the
// user-facing operation it describes.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID        uuid.UUID `json:"id"`
	Actor     uuid.UUID `json:"actor"`
	Action    string    `json:"action"`
	Date      string    `json:"date"`
	OldValue  *int      `json:"old_value,omitempty"`
	NewValue  *int      `json:"new_value,omitempty"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// PgSink persists events to the audit_log table.
type PgSink struct {
	db *pgxpool.Pool
}

func NewPgSink(db *pgxpool.Pool) *PgSink {
	return &PgSink{db: db}
}

func (s *PgSink) Emit(ctx context.Context, ev Event) {
	query := `
        INSERT INTO audit_log (id, actor, action, date, old_value, new_value, success, detail, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
    `
	_, err := s.db.Exec(ctx, query, uuid.New(), ev.Actor, ev.Action, ev.Date,
		ev.OldValue, ev.NewValue, ev.Success, ev.Detail)
	if err != nil {
		log.Printf("audit: failed to persist event %s for %s: %v", ev.Action, ev.Actor, err)
	}
}

// Discard drops every event. Used in tests and when no sink is wired.
type Discard struct{}

func (Discard) Emit(ctx context.Context, ev Event) {}

// Recorder keeps events in memory so tests can assert on them.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
