package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // a Monday

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e := NewEngine(zap.NewNop().Sugar(), DefaultConfig(), nil)
	e.now = func() time.Time { return testNow }
	return e
}

func mustCreate(t *testing.T, e *Engine, info *model.EventCreate) *model.Event {
	t.Helper()

	event, err := e.Create(context.Background(), info)
	require.NoError(t, err)
	return event
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

func TestCreateDefaults(t *testing.T) {
	e := newTestEngine(t)

	event := mustCreate(t, e, &model.EventCreate{Title: "Intro call"})

	assert.Equal(t, testNow, event.StartTime)
	assert.Equal(t, testNow.Add(time.Hour), event.EndTime)
	assert.Equal(t, model.StatusScheduled, event.Status)
	assert.Equal(t, testNow, event.CreatedAt)
	assert.NotEqual(t, uuid.Nil, event.ID)

	second := mustCreate(t, e, &model.EventCreate{
		Title:     "Follow-up",
		StartTime: at(14, 0),
	})
	assert.NotEqual(t, event.ID, second.ID)
	assert.Equal(t, at(14, 0).Add(time.Hour), second.EndTime)
}

func TestCreateRejectsInvertedInterval(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Create(context.Background(), &model.EventCreate{
		Title:     "Broken",
		StartTime: at(12, 0),
		EndTime:   at(11, 0),
	})

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "end_time", validationErr.Field)
}

func TestCreateAllDayBounds(t *testing.T) {
	e := newTestEngine(t)

	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Trade fair",
		AllDay:    true,
		StartTime: at(10, 30),
		EndTime:   at(16, 0),
	})

	assert.Equal(t, at(0, 0), event.StartTime)
	assert.Equal(t, at(0, 0).AddDate(0, 0, 1), event.EndTime)
}

func TestConflictGate(t *testing.T) {
	e := newTestEngine(t)

	existing := mustCreate(t, e, &model.EventCreate{
		Title:     "Quarterly review",
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	})

	_, err := e.Create(context.Background(), &model.EventCreate{
		Title:     "Nested call",
		StartTime: at(10, 30),
		EndTime:   at(11, 0),
	})

	var conflictErr *model.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, existing.ID, conflictErr.Conflicts[0].ID)

	// failed create leaves no partial insert behind
	events, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	forced, err := e.Create(context.Background(), &model.EventCreate{
		Title:           "Nested call",
		StartTime:       at(10, 30),
		EndTime:         at(11, 0),
		IgnoreConflicts: true,
	})
	require.NoError(t, err)

	events, err = e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	_, err = e.EventByID(context.Background(), forced.ID)
	assert.NoError(t, err)
}

func TestTouchingBoundariesDoNotConflict(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, &model.EventCreate{
		Title:     "Morning block",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})

	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Back to back",
		StartTime: at(11, 0),
		EndTime:   at(12, 0),
	})

	conflicts, err := e.CheckConflicts(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestOverlapSymmetry(t *testing.T) {
	tests := []struct {
		name           string
		aStart, aEnd   time.Time
		bStart, bEnd   time.Time
		expectsOverlap bool
	}{
		{"nested", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"partial", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"touching", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(14, 0), at(15, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectsOverlap, overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.expectsOverlap, overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	e := newTestEngine(t)

	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Draft",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})

	title := "Final"
	customer := "cust-42"
	updated, err := e.Update(context.Background(), event.ID, &model.EventPatch{
		Title:      &title,
		CustomerID: &customer,
	})
	require.NoError(t, err)

	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "cust-42", updated.CustomerID)
	assert.Equal(t, at(10, 0), updated.StartTime)
}

func TestUpdateUnknownID(t *testing.T) {
	e := newTestEngine(t)

	title := "whatever"
	_, err := e.Update(context.Background(), uuid.New(), &model.EventPatch{Title: &title})
	assert.ErrorIs(t, err, model.ErrNoRecord)

	assert.ErrorIs(t, e.Cancel(context.Background(), uuid.New()), model.ErrNoRecord)
}

func TestUpdateConflictRecheck(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, &model.EventCreate{
		Title:     "Busy",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Movable",
		StartTime: at(14, 0),
		EndTime:   at(15, 0),
	})

	start := at(10, 30)
	end := at(11, 30)
	_, err := e.Update(context.Background(), event.ID, &model.EventPatch{
		StartTime: &start,
		EndTime:   &end,
	})

	var conflictErr *model.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// override flag bypasses the gate
	_, err = e.Update(context.Background(), event.ID, &model.EventPatch{
		StartTime:       &start,
		EndTime:         &end,
		IgnoreConflicts: true,
	})
	require.NoError(t, err)
}

func TestUpdateConflictRecheckDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConflictRecheckOnUpdate = false
	e := NewEngine(zap.NewNop().Sugar(), cfg, nil)
	e.now = func() time.Time { return testNow }

	mustCreate(t, e, &model.EventCreate{
		Title:     "Busy",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Movable",
		StartTime: at(14, 0),
		EndTime:   at(15, 0),
	})

	start := at(10, 30)
	_, err := e.Update(context.Background(), event.ID, &model.EventPatch{StartTime: &start})
	assert.NoError(t, err)
}

func TestStatusTransitions(t *testing.T) {
	confirmed := model.StatusConfirmed
	completed := model.StatusCompleted
	scheduled := model.StatusScheduled
	cancelled := model.StatusCancelled

	tests := []struct {
		name    string
		prepare func(t *testing.T, e *Engine, id uuid.UUID)
		status  model.Status
		wantErr bool
	}{
		{"scheduled to confirmed", nil, confirmed, false},
		{"scheduled to completed", nil, completed, false},
		{"scheduled to cancelled via update", nil, cancelled, true},
		{
			"confirmed back to scheduled",
			func(t *testing.T, e *Engine, id uuid.UUID) {
				_, err := e.Update(context.Background(), id, &model.EventPatch{Status: &confirmed})
				require.NoError(t, err)
			},
			scheduled,
			true,
		},
		{
			"completed back to confirmed",
			func(t *testing.T, e *Engine, id uuid.UUID) {
				_, err := e.Update(context.Background(), id, &model.EventPatch{Status: &completed})
				require.NoError(t, err)
			},
			confirmed,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			event := mustCreate(t, e, &model.EventCreate{
				Title:     "Lifecycle",
				StartTime: at(10, 0),
				EndTime:   at(11, 0),
			})
			if tt.prepare != nil {
				tt.prepare(t, e, event.ID)
			}

			status := tt.status
			_, err := e.Update(context.Background(), event.ID, &model.EventPatch{Status: &status})
			if tt.wantErr {
				var stateErr *model.InvalidStateError
				assert.ErrorAs(t, err, &stateErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCancelTerminality(t *testing.T) {
	e := newTestEngine(t)

	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Doomed",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})

	require.NoError(t, e.Cancel(context.Background(), event.ID))

	stored, err := e.EventByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status)

	// cancelled events no longer count as conflicts
	candidate := &model.Event{EventCreate: model.EventCreate{
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	}}
	conflicts, err := e.CheckConflicts(context.Background(), candidate)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// terminal: no further edits, no second cancel
	title := "Resurrected"
	_, err = e.Update(context.Background(), event.ID, &model.EventPatch{Title: &title})
	var stateErr *model.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
	assert.ErrorAs(t, e.Cancel(context.Background(), event.ID), &stateErr)

	// still queryable for history
	events, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCancelCompletedRejected(t *testing.T) {
	e := newTestEngine(t)

	event := mustCreate(t, e, &model.EventCreate{
		Title:     "Done",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})

	completed := model.StatusCompleted
	_, err := e.Update(context.Background(), event.ID, &model.EventPatch{Status: &completed})
	require.NoError(t, err)

	var stateErr *model.InvalidStateError
	assert.ErrorAs(t, e.Cancel(context.Background(), event.ID), &stateErr)
}

func TestQueryFiltersAndOrdering(t *testing.T) {
	e := newTestEngine(t)

	late := mustCreate(t, e, &model.EventCreate{
		Title:      "Late",
		EventType:  model.EventTypeCall,
		CustomerID: "cust-1",
		StartTime:  at(15, 0),
		EndTime:    at(16, 0),
	})
	early := mustCreate(t, e, &model.EventCreate{
		Title:     "Early",
		EventType: model.EventTypeMeeting,
		StartTime: at(9, 0),
		EndTime:   at(10, 0),
	})

	events, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, early.ID, events[0].ID)
	assert.Equal(t, late.ID, events[1].ID)

	callType := model.EventTypeCall
	events, err = e.Query(context.Background(), model.EventsFilter{EventType: &callType})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, late.ID, events[0].ID)

	events, err = e.Query(context.Background(), model.EventsFilter{CustomerID: "cust-1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, late.ID, events[0].ID)

	events, err = e.Query(context.Background(), model.EventsFilter{
		From: at(14, 0),
		To:   at(15, 0),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, late.ID, events[0].ID)
}

func TestQueryIdempotent(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, &model.EventCreate{Title: "A", StartTime: at(9, 0), EndTime: at(10, 0)})
	mustCreate(t, e, &model.EventCreate{Title: "B", StartTime: at(11, 0), EndTime: at(12, 0)})

	first, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	second, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestQueryExpandsRecurringEvents(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, &model.EventCreate{
		Title:     "Daily standup",
		StartTime: at(9, 0),
		EndTime:   at(9, 30),
		Recurrence: &model.Recurrence{
			Frequency: model.FrequencyDaily,
			Interval:  1,
		},
	})

	events, err := e.Query(context.Background(), model.EventsFilter{
		From: at(0, 0),
		To:   at(0, 0).AddDate(0, 0, 5),
	})
	require.NoError(t, err)
	require.Len(t, events, 5)

	for i, occ := range events {
		assert.Equal(t, at(9, 0).AddDate(0, 0, i), occ.StartTime)
		assert.Equal(t, 30*time.Minute, occ.EndTime.Sub(occ.StartTime))
	}
}

func TestRecurringEventConflicts(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, &model.EventCreate{
		Title:     "Weekly sync",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
		Recurrence: &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			Interval:  1,
		},
	})

	// one week later the series occupies the same morning
	_, err := e.Create(context.Background(), &model.EventCreate{
		Title:     "Clashing",
		StartTime: at(10, 30).AddDate(0, 0, 7),
		EndTime:   at(11, 30).AddDate(0, 0, 7),
	})
	var conflictErr *model.ConflictError
	assert.ErrorAs(t, err, &conflictErr)

	// but the afternoon is free
	_, err = e.Create(context.Background(), &model.EventCreate{
		Title:     "Fine",
		StartTime: at(14, 0).AddDate(0, 0, 7),
		EndTime:   at(15, 0).AddDate(0, 0, 7),
	})
	assert.NoError(t, err)
}

func TestRangeWrappers(t *testing.T) {
	e := newTestEngine(t)

	today := mustCreate(t, e, &model.EventCreate{
		Title:     "Today",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	thisWeek := mustCreate(t, e, &model.EventCreate{
		Title:     "Friday",
		StartTime: at(10, 0).AddDate(0, 0, 4),
		EndTime:   at(11, 0).AddDate(0, 0, 4),
	})
	nextMonth := mustCreate(t, e, &model.EventCreate{
		Title:     "April",
		StartTime: time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 10, 11, 0, 0, 0, time.UTC),
	})

	events, err := e.EventsToday(context.Background(), testNow)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, today.ID, events[0].ID)

	events, err = e.EventsThisWeek(context.Background(), testNow)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, today.ID, events[0].ID)
	assert.Equal(t, thisWeek.ID, events[1].ID)

	events, err = e.EventsThisMonth(context.Background(), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, nextMonth.ID, events[0].ID)
}

func TestQueryUnboundedIncludesFarFutureEvents(t *testing.T) {
	e := newTestEngine(t)

	near := mustCreate(t, e, &model.EventCreate{
		Title:     "Soon",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	// well past the recurrence expansion horizon
	far := mustCreate(t, e, &model.EventCreate{
		Title:     "Renewal",
		StartTime: testNow.AddDate(2, 0, 0),
		EndTime:   testNow.AddDate(2, 0, 0).Add(time.Hour),
	})

	events, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, near.ID, events[0].ID)
	assert.Equal(t, far.ID, events[1].ID)

	// an explicit upper bound still excludes it
	events, err = e.Query(context.Background(), model.EventsFilter{To: at(23, 0)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, near.ID, events[0].ID)
}

func TestQueryUnboundedStillCapsRecurrenceExpansion(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, &model.EventCreate{
		Title:     "Daily standup",
		StartTime: at(9, 0),
		EndTime:   at(9, 30),
		Recurrence: &model.Recurrence{
			Frequency: model.FrequencyDaily,
			Interval:  1,
		},
	})

	events, err := e.Query(context.Background(), model.EventsFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), 367)
}

func TestCancelReplacesStoredRecord(t *testing.T) {
	e := newTestEngine(t)

	created := mustCreate(t, e, &model.EventCreate{
		Title:     "Handed out",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})

	require.NoError(t, e.Cancel(context.Background(), created.ID))

	// the pointer returned at creation is never mutated in place
	assert.Equal(t, model.StatusScheduled, created.Status)

	stored, err := e.EventByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status)
}

type stubScheduler struct {
	scheduled []uuid.UUID
	cancelled []uuid.UUID
}

func (s *stubScheduler) Schedule(event *model.Event) {
	s.scheduled = append(s.scheduled, event.ID)
}

func (s *stubScheduler) CancelEvent(id uuid.UUID) {
	s.cancelled = append(s.cancelled, id)
}

func TestUpdateRemindersReschedules(t *testing.T) {
	stub := &stubScheduler{}
	e := NewEngine(zap.NewNop().Sugar(), DefaultConfig(), stub)
	e.now = func() time.Time { return testNow }

	event := mustCreate(t, e, &model.EventCreate{
		Title:     "With reminder",
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
		Reminders: []*model.Reminder{{Channel: model.ChannelPopup, MinutesBefore: 10}},
	})
	require.Len(t, stub.scheduled, 1)

	// swapping the reminder set drops the queued triggers and requeues
	_, err := e.Update(context.Background(), event.ID, &model.EventPatch{
		Reminders: []*model.Reminder{{Channel: model.ChannelEmail, MinutesBefore: 30}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.ID}, stub.cancelled)
	assert.Len(t, stub.scheduled, 2)

	// clearing the reminders cancels without rescheduling
	_, err = e.Update(context.Background(), event.ID, &model.EventPatch{
		Reminders: []*model.Reminder{},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.ID, event.ID}, stub.cancelled)
	assert.Len(t, stub.scheduled, 2)
}

func TestEventByIDUnknown(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.EventByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, model.ErrNoRecord))
}
