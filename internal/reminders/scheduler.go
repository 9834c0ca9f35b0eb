package reminders

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

// Notifier delivers a fired reminder. Delivery is simulated in this service;
// real transports live behind this interface.
type Notifier interface {
	Notify(ctx context.Context, event *model.Event, reminder *model.Reminder)
}

// Scheduler holds pending reminder triggers in a min-heap drained by a
// single polling loop. Triggers already in the past at scheduling time are
// skipped silently; cancelling an event drops its pending triggers.
type Scheduler struct {
	logger   *zap.SugaredLogger
	notifier Notifier
	poll     time.Duration

	mu      sync.Mutex
	pending triggerHeap

	now func() time.Time
}

func NewScheduler(logger *zap.SugaredLogger, notifier Notifier, poll time.Duration) *Scheduler {
	return &Scheduler{
		logger:   logger,
		notifier: notifier,
		poll:     poll,
		now:      time.Now,
	}
}

// Schedule queues one trigger per reminder at startTime - minutesBefore.
func (s *Scheduler) Schedule(event *model.Event) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range event.Reminders {
		triggerAt := event.StartTime.Add(-time.Duration(r.MinutesBefore) * time.Minute)
		if triggerAt.Before(now) {
			s.logger.Debugw("skipping elapsed reminder",
				"event_id", event.ID,
				"minutes_before", r.MinutesBefore,
				"trigger_at", triggerAt,
			)
			continue
		}
		heap.Push(&s.pending, &trigger{
			at:       triggerAt,
			eventID:  event.ID,
			event:    event,
			reminder: r,
		})
	}
}

// CancelEvent drops all pending triggers for an event id.
func (s *Scheduler) CancelEvent(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept triggerHeap
	for _, t := range s.pending {
		if t.eventID != id {
			kept = append(kept, t)
		}
	}
	s.pending = kept
	heap.Init(&s.pending)
}

// PendingCount reports queued triggers for an event id.
func (s *Scheduler) PendingCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, t := range s.pending {
		if t.eventID == id {
			count++
		}
	}
	return count
}

// Start runs the polling loop until the context is done or the process
// shuts down. Meant to run in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	done := make(chan struct{})

	closer.Bind(func() {
		close(done)
		ticker.Stop()
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case t := <-ticker.C:
			s.fireDue(ctx, t)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*trigger
	for s.pending.Len() > 0 && !s.pending[0].at.After(now) {
		due = append(due, heap.Pop(&s.pending).(*trigger))
	}
	s.mu.Unlock()

	// Fired triggers are independent of each other and of the caller.
	for _, t := range due {
		go s.notifier.Notify(ctx, t.event, t.reminder)
	}
}

type trigger struct {
	at       time.Time
	eventID  uuid.UUID
	event    *model.Event
	reminder *model.Reminder
}

type triggerHeap []*trigger

func (h triggerHeap) Len() int            { return len(h) }
func (h triggerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h triggerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *triggerHeap) Push(x interface{}) { *h = append(*h, x.(*trigger)) }

func (h *triggerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
