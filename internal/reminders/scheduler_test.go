package reminders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu    sync.Mutex
	fired []*model.Reminder
}

func (n *recordingNotifier) Notify(_ context.Context, _ *model.Event, reminder *model.Reminder) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fired = append(n.fired, reminder)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fired)
}

var schedulerNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*Scheduler, *recordingNotifier) {
	t.Helper()

	notifier := &recordingNotifier{}
	s := NewScheduler(zap.NewNop().Sugar(), notifier, time.Minute)
	s.now = func() time.Time { return schedulerNow }
	return s, notifier
}

func eventWithReminders(start time.Time, minutes ...int) *model.Event {
	rs := make([]*model.Reminder, len(minutes))
	for i, m := range minutes {
		rs[i] = &model.Reminder{Channel: model.ChannelPopup, MinutesBefore: m}
	}
	return &model.Event{
		ID: uuid.New(),
		EventCreate: model.EventCreate{
			Title:     "Reminder test",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Reminders: rs,
		},
	}
}

func TestScheduleQueuesTriggers(t *testing.T) {
	s, _ := newTestScheduler(t)

	event := eventWithReminders(schedulerNow.Add(time.Hour), 10, 30)
	s.Schedule(event)

	assert.Equal(t, 2, s.PendingCount(event.ID))
}

func TestScheduleSkipsElapsedTriggers(t *testing.T) {
	s, _ := newTestScheduler(t)

	// start is 20 minutes out: the 30-minute offset is already in the past
	event := eventWithReminders(schedulerNow.Add(20*time.Minute), 10, 30)
	s.Schedule(event)

	assert.Equal(t, 1, s.PendingCount(event.ID))
}

func TestCancelEventDropsTriggers(t *testing.T) {
	s, _ := newTestScheduler(t)

	kept := eventWithReminders(schedulerNow.Add(time.Hour), 5)
	dropped := eventWithReminders(schedulerNow.Add(2*time.Hour), 10, 30)
	s.Schedule(kept)
	s.Schedule(dropped)

	s.CancelEvent(dropped.ID)

	assert.Equal(t, 0, s.PendingCount(dropped.ID))
	assert.Equal(t, 1, s.PendingCount(kept.ID))
}

func TestFireDueNotifiesInOrder(t *testing.T) {
	s, notifier := newTestScheduler(t)

	event := eventWithReminders(schedulerNow.Add(time.Hour), 10, 30, 50)
	s.Schedule(event)

	// 10 minutes in: only the 50-minutes-before trigger is due
	s.fireDue(context.Background(), schedulerNow.Add(10*time.Minute))

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, s.PendingCount(event.ID))

	s.fireDue(context.Background(), schedulerNow.Add(time.Hour))

	assert.Eventually(t, func() bool { return notifier.count() == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.PendingCount(event.ID))
}

func TestFireDueNothingDue(t *testing.T) {
	s, notifier := newTestScheduler(t)

	event := eventWithReminders(schedulerNow.Add(time.Hour), 5)
	s.Schedule(event)

	s.fireDue(context.Background(), schedulerNow)

	require.Equal(t, 0, notifier.count())
	assert.Equal(t, 1, s.PendingCount(event.ID))
}
