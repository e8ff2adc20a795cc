package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Publisher fans an event out to in-process subscribers (the event bus).
type Publisher interface {
	Publish(e *Event)
}

// Recorder appends an event to the feed and publishes it on the bus. Feed
// writes are best-effort from the caller's point of view: a failed append is
// logged and must never fail the state change it describes.
type Recorder struct {
	repo Repository
	pub  Publisher
}

func NewRecorder(repo Repository, pub Publisher) *Recorder {
	return &Recorder{repo: repo, pub: pub}
}

func (r *Recorder) Record(ctx context.Context, taskID, eventType, message, actor string) {
	e := &Event{
		ID:        ulid.Make().String(),
		TaskID:    taskID,
		Type:      eventType,
		Message:   message,
		Actor:     actor,
		CreatedAt: time.Now(),
	}
	if err := r.repo.Append(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to append event", "type", eventType, "task_id", taskID, "error", err)
		return
	}
	if r.pub != nil {
		r.pub.Publish(e)
	}
}
