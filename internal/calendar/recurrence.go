package calendar

import (
	"fmt"
	"time"

	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"github.com/teambition/rrule-go"
)

func ruleString(rec *model.Recurrence, start time.Time) (string, error) {
	var freq rrule.Frequency

	switch rec.Frequency {
	case model.FrequencyDaily:
		freq = rrule.DAILY
	case model.FrequencyWeekly:
		freq = rrule.WEEKLY
	case model.FrequencyMonthly:
		freq = rrule.MONTHLY
	case model.FrequencyYearly:
		freq = rrule.YEARLY
	default:
		return "", fmt.Errorf("unknown frequency: %v", rec.Frequency)
	}

	interval := rec.Interval
	if interval <= 0 {
		interval = 1
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  start.UTC(),
	}

	for _, wd := range rec.Weekdays {
		opt.Byweekday = append(opt.Byweekday, weekdayToRRule(wd))
	}

	if rec.Until != nil {
		opt.Until = rec.Until.UTC()
	}
	if rec.Count != nil {
		opt.Count = *rec.Count
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("creating rule: %w", err)
	}

	return rule.String(), nil
}

// occurrencesBetween expands a recurring event into per-occurrence copies
// whose interval may intersect [from, to]. Non-recurring events are returned
// as-is; the caller applies its own interval filter.
func occurrencesBetween(event *model.Event, from, to time.Time) ([]*model.Event, error) {
	if event.RepeatRule == "" {
		return []*model.Event{event}, nil
	}

	duration := event.EndTime.Sub(event.StartTime)

	rOption, err := rrule.StrToROption(event.RepeatRule)
	if err != nil {
		return nil, fmt.Errorf("parse repeat rule %q: %w", event.RepeatRule, err)
	}
	rule, err := rrule.NewRRule(*rOption)
	if err != nil {
		return nil, fmt.Errorf("make rule: %w", err)
	}

	windowStart := from.Add(-duration)
	if from.IsZero() {
		windowStart = event.StartTime
	}

	var res []*model.Event
	for _, r := range rule.Between(windowStart, to, true) {
		occ := *event
		occ.StartTime = r
		occ.EndTime = r.Add(duration)
		res = append(res, &occ)
	}

	return res, nil
}

func weekdayToRRule(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
