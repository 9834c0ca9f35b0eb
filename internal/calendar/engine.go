package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"go.uber.org/zap"
)

// Engine owns the in-memory event set and is the sole source of truth for
// conflict detection. All mutations are atomic under a single mutex so the
// conflict-check-then-insert path cannot interleave.
type Engine struct {
	logger    *zap.SugaredLogger
	cfg       Config
	reminders reminderScheduler

	mu     sync.Mutex
	events map[uuid.UUID]*model.Event

	now func() time.Time
}

type reminderScheduler interface {
	Schedule(event *model.Event)
	CancelEvent(id uuid.UUID)
}

type Config struct {
	WorkingHoursStart       int
	WorkingHoursEnd         int
	SlotStep                time.Duration
	SuggestionWindowDays    int
	SuggestionMaxSlots      int
	SuggestionMaxPerDay     int
	ConflictRecheckOnUpdate bool
	// ExpansionHorizon bounds recurrence expansion for open-ended queries.
	ExpansionHorizon time.Duration
}

func DefaultConfig() Config {
	return Config{
		WorkingHoursStart:       9,
		WorkingHoursEnd:         18,
		SlotStep:                30 * time.Minute,
		SuggestionWindowDays:    7,
		SuggestionMaxSlots:      5,
		SuggestionMaxPerDay:     2,
		ConflictRecheckOnUpdate: true,
		ExpansionHorizon:        365 * 24 * time.Hour,
	}
}

func NewEngine(logger *zap.SugaredLogger, cfg Config, reminders reminderScheduler) *Engine {
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		reminders: reminders,
		events:    map[uuid.UUID]*model.Event{},
		now:       time.Now,
	}
}

// Create assigns a fresh id, fills defaults, runs the conflict gate and
// stores the event. On failure the event set is unchanged.
func (e *Engine) Create(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	now := e.now().UTC()

	event := &model.Event{
		ID:          uuid.New(),
		Status:      model.StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
		EventCreate: *info,
	}

	if event.StartTime.IsZero() {
		event.StartTime = now
	}
	event.StartTime = event.StartTime.UTC()
	if event.EndTime.IsZero() {
		event.EndTime = event.StartTime.Add(time.Hour)
	}
	event.EndTime = event.EndTime.UTC()

	if event.AllDay {
		event.StartTime, event.EndTime = dayBounds(event.StartTime, event.EndTime)
	}

	if !event.EndTime.After(event.StartTime) {
		return nil, &model.ValidationError{Field: "end_time", Message: "must be after start time"}
	}

	if event.Recurrence != nil {
		rule, err := ruleString(event.Recurrence, event.StartTime)
		if err != nil {
			return nil, fmt.Errorf("build repeat rule: %w", err)
		}
		event.RepeatRule = rule
	}

	e.mu.Lock()
	if !event.IgnoreConflicts {
		conflicts, err := e.conflictsLocked(event)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		if len(conflicts) > 0 {
			e.mu.Unlock()
			return nil, &model.ConflictError{Conflicts: conflicts}
		}
	}
	e.events[event.ID] = event
	e.mu.Unlock()

	if e.reminders != nil && len(event.Reminders) > 0 {
		e.reminders.Schedule(event)
	}

	e.logger.Debugw("event created", "id", event.ID, "title", event.Title, "start", event.StartTime)

	return event, nil
}

// Update merges the patch onto the stored record. Cancelled events are
// terminal and reject any update. Conflict re-checking on time changes is
// governed by ConflictRecheckOnUpdate unless the patch sets IgnoreConflicts.
func (e *Engine) Update(ctx context.Context, id uuid.UUID, patch *model.EventPatch) (*model.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.events[id]
	if !ok {
		return nil, model.ErrNoRecord
	}

	if old.Status == model.StatusCancelled {
		return nil, &model.InvalidStateError{From: old.Status, To: old.Status}
	}

	if patch.Status != nil && !validTransition(old.Status, *patch.Status) {
		return nil, &model.InvalidStateError{From: old.Status, To: *patch.Status}
	}

	updated := *old
	applyPatch(&updated, patch)

	timeChanged := patch.StartTime != nil || patch.EndTime != nil || patch.AllDay != nil

	if timeChanged {
		updated.StartTime = updated.StartTime.UTC()
		updated.EndTime = updated.EndTime.UTC()
		if updated.AllDay {
			updated.StartTime, updated.EndTime = dayBounds(updated.StartTime, updated.EndTime)
		}
		if !updated.EndTime.After(updated.StartTime) {
			return nil, &model.ValidationError{Field: "end_time", Message: "must be after start time"}
		}
	}

	if patch.Recurrence != nil || (timeChanged && updated.Recurrence != nil) {
		rule, err := ruleString(updated.Recurrence, updated.StartTime)
		if err != nil {
			return nil, fmt.Errorf("build repeat rule: %w", err)
		}
		updated.RepeatRule = rule
	}

	if timeChanged && e.cfg.ConflictRecheckOnUpdate && !patch.IgnoreConflicts {
		conflicts, err := e.conflictsLocked(&updated)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, &model.ConflictError{Conflicts: conflicts}
		}
	}

	updated.UpdatedAt = e.now().UTC()
	e.events[id] = &updated

	if (timeChanged || patch.Reminders != nil) && e.reminders != nil {
		e.reminders.CancelEvent(id)
		if len(updated.Reminders) > 0 {
			e.reminders.Schedule(&updated)
		}
	}

	return &updated, nil
}

// Cancel flips status to cancelled, drops pending reminders and emits a
// simulated attendee notification. Completed and already-cancelled events
// reject the transition.
func (e *Engine) Cancel(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()

	event, ok := e.events[id]
	if !ok {
		e.mu.Unlock()
		return model.ErrNoRecord
	}

	if event.Status == model.StatusCompleted || event.Status == model.StatusCancelled {
		e.mu.Unlock()
		return &model.InvalidStateError{From: event.Status, To: model.StatusCancelled}
	}

	// copy-and-replace so references handed out earlier stay read-only
	cancelled := *event
	cancelled.Status = model.StatusCancelled
	cancelled.UpdatedAt = e.now().UTC()
	e.events[id] = &cancelled
	attendees := len(cancelled.Attendees)
	e.mu.Unlock()

	if e.reminders != nil {
		e.reminders.CancelEvent(id)
	}

	if attendees > 0 {
		e.logger.Infow("event cancelled, notifying attendees", "id", id, "attendees", attendees)
	}

	return nil
}

// Query returns events whose start time falls inside the filter range,
// ascending by start time. Recurring events are expanded to their
// occurrences within the range; with no upper bound the expansion stops at
// ExpansionHorizon, but plain events are never dropped by the horizon.
// Pure read.
func (e *Engine) Query(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	base := e.snapshot()

	from, to := filter.From, filter.To
	expandTo := to
	if expandTo.IsZero() {
		anchor := from
		if anchor.IsZero() {
			anchor = e.now().UTC()
		}
		expandTo = anchor.Add(e.cfg.ExpansionHorizon)
	}

	res := []*model.Event{}
	for _, ev := range base {
		if filter.EventType != nil && ev.EventType != *filter.EventType {
			continue
		}
		if filter.Status != nil && ev.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != "" && ev.CustomerID != filter.CustomerID {
			continue
		}

		occurrences, err := occurrencesBetween(ev, from, expandTo)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			if !from.IsZero() && occ.StartTime.Before(from) {
				continue
			}
			if !to.IsZero() && occ.StartTime.After(to) {
				continue
			}
			res = append(res, occ)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].StartTime.Before(res[j].StartTime)
	})

	return res, nil
}

// EventByID returns the stored record for an id.
func (e *Engine) EventByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	event, ok := e.events[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return event, nil
}

// EventsToday is a pure range wrapper over Query.
func (e *Engine) EventsToday(ctx context.Context, ref time.Time) ([]*model.Event, error) {
	from := startOfDay(ref.UTC())
	return e.Query(ctx, model.EventsFilter{From: from, To: lastInstant(from.AddDate(0, 0, 1))})
}

// EventsThisWeek covers Monday through Sunday of ref's week.
func (e *Engine) EventsThisWeek(ctx context.Context, ref time.Time) ([]*model.Event, error) {
	day := startOfDay(ref.UTC())
	offset := (int(day.Weekday()) + 6) % 7
	from := day.AddDate(0, 0, -offset)
	return e.Query(ctx, model.EventsFilter{From: from, To: lastInstant(from.AddDate(0, 0, 7))})
}

func (e *Engine) EventsThisMonth(ctx context.Context, ref time.Time) ([]*model.Event, error) {
	ref = ref.UTC()
	from := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	return e.Query(ctx, model.EventsFilter{From: from, To: lastInstant(from.AddDate(0, 1, 0))})
}

// CheckConflicts returns all stored non-cancelled events overlapping the
// candidate's interval, excluding the candidate's own id.
func (e *Engine) CheckConflicts(ctx context.Context, candidate *model.Event) ([]*model.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conflictsLocked(candidate)
}

func (e *Engine) snapshot() []*model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]*model.Event, 0, len(e.events))
	for _, ev := range e.events {
		res = append(res, ev)
	}
	return res
}

func applyPatch(event *model.Event, patch *model.EventPatch) {
	if patch.EventType != nil {
		event.EventType = *patch.EventType
	}
	if patch.Category != nil {
		event.Category = *patch.Category
	}
	if patch.Priority != nil {
		event.Priority = *patch.Priority
	}
	if patch.Status != nil {
		event.Status = *patch.Status
	}
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.AllDay != nil {
		event.AllDay = *patch.AllDay
	}
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	if patch.CustomerID != nil {
		event.CustomerID = *patch.CustomerID
	}
	if patch.CustomerName != nil {
		event.CustomerName = *patch.CustomerName
	}
	if patch.Attendees != nil {
		event.Attendees = patch.Attendees
	}
	if patch.Reminders != nil {
		event.Reminders = patch.Reminders
	}
	if patch.Recurrence != nil {
		event.Recurrence = patch.Recurrence
	}
}

func validTransition(from, to model.Status) bool {
	if to == model.StatusCancelled {
		return false
	}
	return to >= from
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func lastInstant(t time.Time) time.Time {
	return t.Add(-time.Nanosecond)
}

func dayBounds(start, end time.Time) (time.Time, time.Time) {
	s := startOfDay(start)
	e := startOfDay(end)
	if !e.After(s) {
		e = s
	}
	return s, e.AddDate(0, 0, 1)
}
