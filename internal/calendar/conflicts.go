package calendar

import (
	"time"

	"github.com/rosterhq/crm-calendar-backend/internal/model"
)

// overlaps reports half-open interval intersection: [aStart, aEnd) and
// [bStart, bEnd) overlap iff aStart < bEnd && aEnd > bStart. Touching
// endpoints do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// conflictsLocked scans stored non-cancelled events for interval overlap
// with the candidate, excluding the candidate's own id. Recurring events are
// expanded around the candidate's window. Caller must hold e.mu.
func (e *Engine) conflictsLocked(candidate *model.Event) ([]*model.Event, error) {
	var res []*model.Event

	for _, stored := range e.events {
		if stored.ID == candidate.ID {
			continue
		}
		if stored.Status == model.StatusCancelled {
			continue
		}

		occurrences, err := occurrencesBetween(stored, candidate.StartTime, candidate.EndTime)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			if overlaps(candidate.StartTime, candidate.EndTime, occ.StartTime, occ.EndTime) {
				res = append(res, occ)
				break
			}
		}
	}

	return res, nil
}
