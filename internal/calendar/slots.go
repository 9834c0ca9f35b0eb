package calendar

import (
	"context"
	"time"

	"github.com/rosterhq/crm-calendar-backend/internal/model"
)

// FindAvailableSlots builds a dense 30-minute grid over the day's working
// hours. Every slot whose end fits the day boundary is returned; Available
// is false when the slot overlaps a non-cancelled event. Unset constraint
// hours fall back to the engine-wide working hours.
func (e *Engine) FindAvailableSlots(ctx context.Context, date time.Time, durationMinutes int, constraints model.SlotConstraints) ([]*model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, &model.ValidationError{Field: "duration", Message: "must be positive"}
	}

	startHour := e.cfg.WorkingHoursStart
	if constraints.StartHour != nil {
		startHour = *constraints.StartHour
	}
	endHour := e.cfg.WorkingHoursEnd
	if constraints.EndHour != nil {
		endHour = *constraints.EndHour
	}

	res := []*model.TimeSlot{}

	date = date.UTC()
	if constraints.ExcludeWeekends && isWeekend(date) {
		return res, nil
	}

	day := startOfDay(date)
	busy, err := e.busyIntervals(day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	dayEnd := day.Add(time.Duration(endHour) * time.Hour)

	for cursor := day.Add(time.Duration(startHour) * time.Hour); !cursor.Add(duration).After(dayEnd); cursor = cursor.Add(e.cfg.SlotStep) {
		slot := &model.TimeSlot{
			Start:     cursor,
			End:       cursor.Add(duration),
			Available: true,
		}
		for _, b := range busy {
			if overlaps(slot.Start, slot.End, b.Start, b.End) {
				slot.Available = false
				break
			}
		}
		res = append(res, slot)
	}

	return res, nil
}

// SuggestMeetingTime scans the next SuggestionWindowDays starting tomorrow,
// skipping weekends, and collects available working-hour slots against the
// given preferences: at most SuggestionMaxPerDay per day, SuggestionMaxSlots
// overall. Attendee calendars are not cross-checked; this is a
// single-calendar view.
func (e *Engine) SuggestMeetingTime(ctx context.Context, durationMinutes int, attendees []string, prefs model.SuggestionPrefs) ([]*model.TimeSlot, error) {
	preferredDays := map[time.Weekday]struct{}{}
	for _, d := range prefs.PreferredDays {
		preferredDays[d] = struct{}{}
	}
	preferredHours := map[int]struct{}{}
	for _, h := range prefs.PreferredHours {
		preferredHours[h] = struct{}{}
	}

	res := []*model.TimeSlot{}
	today := startOfDay(e.now().UTC())

	for i := 1; i <= e.cfg.SuggestionWindowDays && len(res) < e.cfg.SuggestionMaxSlots; i++ {
		day := today.AddDate(0, 0, i)

		if isWeekend(day) {
			continue
		}
		if len(preferredDays) > 0 {
			if _, ok := preferredDays[day.Weekday()]; !ok {
				continue
			}
		}

		slots, err := e.FindAvailableSlots(ctx, day, durationMinutes, model.SlotConstraints{ExcludeWeekends: true})
		if err != nil {
			return nil, err
		}

		perDay := 0
		for _, slot := range slots {
			if !slot.Available {
				continue
			}
			if len(preferredHours) > 0 {
				if _, ok := preferredHours[slot.Start.Hour()]; !ok {
					continue
				}
			}
			if prefs.AvoidLunch && slot.Start.Hour() >= 12 && slot.Start.Hour() < 14 {
				continue
			}

			res = append(res, slot)
			perDay++
			if perDay >= e.cfg.SuggestionMaxPerDay || len(res) >= e.cfg.SuggestionMaxSlots {
				break
			}
		}
	}

	return res, nil
}

func (e *Engine) busyIntervals(from, to time.Time) ([]*model.TimeSlot, error) {
	var res []*model.TimeSlot

	for _, stored := range e.snapshot() {
		if stored.Status == model.StatusCancelled {
			continue
		}
		occurrences, err := occurrencesBetween(stored, from, to)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			if overlaps(occ.StartTime, occ.EndTime, from, to) {
				res = append(res, &model.TimeSlot{Start: occ.StartTime, End: occ.EndTime})
			}
		}
	}

	return res, nil
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
