package google

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/colors"
	"github.com/harrisonrobin/advtodo/pkg/index"
	"github.com/harrisonrobin/advtodo/pkg/model"
	"github.com/harrisonrobin/advtodo/pkg/overdue"
	"github.com/harrisonrobin/advtodo/pkg/util"
	"google.golang.org/api/calendar/v3"
)

// EventAPI is the subset of the Calendar API the publisher needs.
type EventAPI interface {
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	FindEventByTaskID(ctx context.Context, taskID int64) (*calendar.Event, error)
}

// Publisher pushes tasks with a due date to a calendar. It never reads
// anything back into the task store.
type Publisher struct {
	api     EventAPI
	index   *index.EventIndex
	colors  *colors.ColorCache
	pending *overdue.Table
	log     *slog.Logger
	now     func() time.Time
}

func NewPublisher(api EventAPI, idx *index.EventIndex, cc *colors.ColorCache, pending *overdue.Table, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{api: api, index: idx, colors: cc, pending: pending, log: log, now: time.Now}
}

type PublishResult struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Failed    int
}

// Publish brings the calendar in line with the given collections: due-dated
// tasks get an event, and events whose task is gone or lost its due date are deleted.
func (p *Publisher) Publish(ctx context.Context, active, completed []model.Task) (PublishResult, error) {
	var res PublishResult
	now := p.now()
	keep := make(map[int64]bool)

	publish := func(task model.Task, done bool) {
		if !task.HasDueDate() {
			return
		}
		keep[task.ID] = true
		outcome, event, err := p.syncEvent(ctx, task, done, now)
		if err != nil {
			res.Failed++
			p.log.Error("error syncing event", "task", task.ID, "error", err)
			return
		}
		switch outcome {
		case outcomeCreated:
			res.Created++
		case outcomeUpdated:
			res.Updated++
		default:
			res.Unchanged++
		}

		start, _ := util.EventStart(task, now.Location())
		flagAt := start.Add(-util.EventStartHour * time.Hour).AddDate(0, 0, 1)
		if !done && !task.Completed && flagAt.After(now) {
			p.pending.Update(task.ID, event.Id, task.Text, flagAt)
		} else {
			p.pending.Remove(task.ID)
		}
	}

	for _, task := range active {
		publish(task, false)
	}
	for _, task := range completed {
		publish(task, true)
	}

	for _, id := range p.index.TaskIDs() {
		if keep[id] {
			continue
		}
		if err := p.api.DeleteEvent(ctx, p.index.Get(id)); err != nil {
			res.Failed++
			p.log.Error("error deleting event", "task", id, "error", err)
			continue
		}
		p.index.Remove(id)
		p.pending.Remove(id)
		res.Deleted++
	}

	if err := p.save(); err != nil {
		return res, err
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}

// Sweep prefixes events with "!" once the task they belong to became overdue
// since the last publish.
func (p *Publisher) Sweep(ctx context.Context) (int, error) {
	flagged := 0
	for _, e := range p.pending.Sweep(p.now()) {
		patch := &calendar.Event{Summary: "! " + e.Summary}
		if _, err := p.api.PatchEvent(ctx, e.EventID, patch); err != nil {
			p.log.Error("sweep: error patching event", "event", e.EventID, "error", err)
			continue
		}
		flagged++
	}
	return flagged, p.save()
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (p *Publisher) syncEvent(ctx context.Context, task model.Task, done bool, now time.Time) (outcome, *calendar.Event, error) {
	target, err := util.ConvertTaskToCalendarEvent(task, done, p.colors.GetColorID(task.Category), now)
	if err != nil {
		return outcomeUnchanged, nil, err
	}

	var existing *calendar.Event
	if eventID := p.index.Get(task.ID); eventID != "" {
		existing, err = p.api.GetEvent(ctx, eventID)
		if err != nil || (existing != nil && existing.Status == "cancelled") {
			existing = nil
		}
	}
	if existing == nil {
		existing, err = p.api.FindEventByTaskID(ctx, task.ID)
		if err != nil {
			return outcomeUnchanged, nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existing == nil {
		created, err := p.api.InsertEvent(ctx, target)
		if err != nil {
			return outcomeUnchanged, nil, err
		}
		p.index.Set(task.ID, created.Id)
		return outcomeCreated, created, nil
	}

	p.index.Set(task.ID, existing.Id)
	patch, err := util.EventNeedsUpdate(existing, target)
	if err != nil {
		return outcomeUnchanged, nil, fmt.Errorf("could not compare task with its calendar event: %w", err)
	}
	if patch == nil {
		return outcomeUnchanged, existing, nil
	}
	updated, err := p.api.PatchEvent(ctx, existing.Id, patch)
	if err != nil {
		return outcomeUnchanged, nil, err
	}
	return outcomeUpdated, updated, nil
}

func (p *Publisher) save() error {
	if err := p.index.Save(); err != nil {
		return fmt.Errorf("failed to save event index: %w", err)
	}
	if err := p.colors.Save(); err != nil {
		return fmt.Errorf("failed to save color cache: %w", err)
	}
	if err := p.pending.Save(); err != nil {
		return fmt.Errorf("failed to save overdue table: %w", err)
	}
	return nil
}
