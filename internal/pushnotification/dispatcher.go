package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/eventbus"
	"github.com/ultronlabs/missionctl/internal/task"
)

// Dispatcher forwards escalation-grade feed events to browser push. Only
// blocked and escalated tasks warrant interrupting a human.
type Dispatcher struct {
	eventBus *eventbus.Bus
	taskRepo task.Repository
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, taskRepo task.Repository, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		taskRepo: taskRepo,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			switch e.Type {
			case event.TypeTaskBlocked, event.TypeTaskEscalated:
				d.handleEscalation(ctx, e)
			}
		}
	}
}

func (d *Dispatcher) handleEscalation(ctx context.Context, e *event.Event) {
	title := "Task blocked"
	if e.Type == event.TypeTaskEscalated {
		title = "Task escalated"
	}

	body := e.Message
	if e.TaskID != "" {
		if t, err := d.taskRepo.Get(ctx, e.TaskID); err == nil {
			body = fmt.Sprintf("%s: %s", t.Title, e.Message)
		}
	}

	d.sender.SendToAll(ctx, &NotificationPayload{
		Title: title,
		Body:  body,
		URL:   fmt.Sprintf("/tasks/%s", e.TaskID),
		Tag:   e.ID,
	})
}
