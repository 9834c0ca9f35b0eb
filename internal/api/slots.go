package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rosterhq/crm-calendar-backend/internal/calendar"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"github.com/rosterhq/crm-calendar-backend/internal/pkg/validator"
)

const dateFormat = "2006-01-02"

func (a *Api) getSlotsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dateStr := q.Get("date")
	if dateStr == "" {
		a.badRequestResponse(w, r, fmt.Errorf("date must be provided"))
		return
	}
	date, err := time.Parse(dateFormat, dateStr)
	if err != nil {
		a.badRequestResponse(w, r, fmt.Errorf("invalid date format: %w", err))
		return
	}

	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil {
		a.badRequestResponse(w, r, fmt.Errorf("invalid duration %v", q.Get("duration")))
		return
	}

	constraints := model.SlotConstraints{}
	if v := q.Get("start_hour"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			a.badRequestResponse(w, r, fmt.Errorf("invalid start hour %v", v))
			return
		}
		constraints.StartHour = &h
	}
	if v := q.Get("end_hour"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			a.badRequestResponse(w, r, fmt.Errorf("invalid end hour %v", v))
			return
		}
		constraints.EndHour = &h
	}
	constraints.ExcludeWeekends = q.Get("exclude_weekends") == "true"

	v := validator.New()
	v.Check(duration > 0, "duration", "must be positive")
	v.Check(constraints.StartHour == nil || (*constraints.StartHour >= 0 && *constraints.StartHour <= 23), "start_hour", "must be between 0 and 23")
	v.Check(constraints.EndHour == nil || (*constraints.EndHour >= 0 && *constraints.EndHour <= 24), "end_hour", "must be between 0 and 24")
	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	slots, err := a.calendar.FindAvailableSlots(r.Context(), date, duration, constraints)
	if err != nil {
		a.engineErrorResponse(w, r, err)
		return
	}

	if q.Get("available_only") == "true" {
		filtered := slots[:0]
		for _, s := range slots {
			if s.Available {
				filtered = append(filtered, s)
			}
		}
		slots = filtered
	}

	resp, _ := mapSlice(slots, mapToTimeSlotResp)

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) getSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil {
		a.badRequestResponse(w, r, fmt.Errorf("invalid duration %v", q.Get("duration")))
		return
	}

	prefs := model.SuggestionPrefs{
		AvoidLunch: q.Get("avoid_lunch") == "true",
	}
	for _, v := range q["preferred_days"] {
		d, err := strconv.Atoi(v)
		if err != nil || d < 0 || d > 6 {
			a.badRequestResponse(w, r, fmt.Errorf("invalid preferred day %v", v))
			return
		}
		prefs.PreferredDays = append(prefs.PreferredDays, time.Weekday(d))
	}
	for _, v := range q["preferred_hours"] {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			a.badRequestResponse(w, r, fmt.Errorf("invalid preferred hour %v", v))
			return
		}
		prefs.PreferredHours = append(prefs.PreferredHours, h)
	}

	slots, err := a.calendar.SuggestMeetingTime(r.Context(), duration, q["attendees"], prefs)
	if err != nil {
		a.engineErrorResponse(w, r, err)
		return
	}

	resp, _ := mapSlice(slots, mapToTimeSlotResp)

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) exportEventsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventsQuery(r)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	events, err := a.calendar.Query(r.Context(), *filter)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("query events: %w", err))
		return
	}

	text, err := calendar.ExportICal(events)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("export events: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}
