package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"github.com/rosterhq/crm-calendar-backend/internal/pkg/validator"
)

func (a *Api) createEventHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		EventType       model.EventType `json:"event_type"`
		Category        model.Category  `json:"category"`
		Priority        model.Priority  `json:"priority"`
		Title           string          `json:"title"`
		Description     string          `json:"description"`
		Location        string          `json:"location"`
		AllDay          bool            `json:"all_day"`
		StartTime       dateTime        `json:"start_time"`
		EndTime         dateTime        `json:"end_time"`
		CustomerID      string          `json:"customer_id"`
		CustomerName    string          `json:"customer_name"`
		CreatedBy       string          `json:"created_by"`
		Attendees       []*attendeeReq  `json:"attendees"`
		Reminders       []*reminderReq  `json:"reminders"`
		Recurrence      *recurrenceReq  `json:"recurrence"`
		IgnoreConflicts bool            `json:"ignore_conflicts"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	for i, at := range req.Attendees {
		v.Check(at.Email != "", fmt.Sprintf("attendees[%d].email", i), "email must be provided")
	}
	for i, rem := range req.Reminders {
		v.Check(rem.MinutesBefore >= 0, fmt.Sprintf("reminders[%d].minutes_before", i), "must not be negative")
	}
	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	attendees, _ := mapSlice(req.Attendees, mapToAttendee)
	reminders, _ := mapSlice(req.Reminders, mapToReminder)

	event, err := a.calendar.Create(r.Context(), &model.EventCreate{
		EventType:       req.EventType,
		Category:        req.Category,
		Priority:        req.Priority,
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		AllDay:          req.AllDay,
		StartTime:       time.Time(req.StartTime),
		EndTime:         time.Time(req.EndTime),
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CreatedBy:       req.CreatedBy,
		Attendees:       attendees,
		Reminders:       reminders,
		Recurrence:      mapToRecurrence(req.Recurrence),
		IgnoreConflicts: req.IgnoreConflicts,
	})
	if err != nil {
		a.engineErrorResponse(w, r, err)
		return
	}

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) getEventsHandler(w http.ResponseWriter, r *http.Request) {
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

	resp, _ := mapSlice(events, mapToEventResp)

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) updateEventHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.badRequestResponse(w, r, fmt.Errorf("invalid event id: %w", err))
		return
	}

	req := &struct {
		EventType       *model.EventType `json:"event_type"`
		Category        *model.Category  `json:"category"`
		Priority        *model.Priority  `json:"priority"`
		Status          *model.Status    `json:"status"`
		Title           *string          `json:"title"`
		Description     *string          `json:"description"`
		Location        *string          `json:"location"`
		AllDay          *bool            `json:"all_day"`
		StartTime       *dateTime        `json:"start_time"`
		EndTime         *dateTime        `json:"end_time"`
		CustomerID      *string          `json:"customer_id"`
		CustomerName    *string          `json:"customer_name"`
		Attendees       []*attendeeReq   `json:"attendees"`
		Reminders       []*reminderReq   `json:"reminders"`
		Recurrence      *recurrenceReq   `json:"recurrence"`
		IgnoreConflicts bool             `json:"ignore_conflicts"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	patch := &model.EventPatch{
		EventType:       req.EventType,
		Category:        req.Category,
		Priority:        req.Priority,
		Status:          req.Status,
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		AllDay:          req.AllDay,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		Recurrence:      mapToRecurrence(req.Recurrence),
		IgnoreConflicts: req.IgnoreConflicts,
	}
	if req.StartTime != nil {
		t := time.Time(*req.StartTime)
		patch.StartTime = &t
	}
	if req.EndTime != nil {
		t := time.Time(*req.EndTime)
		patch.EndTime = &t
	}
	if req.Attendees != nil {
		patch.Attendees, _ = mapSlice(req.Attendees, mapToAttendee)
	}
	if req.Reminders != nil {
		patch.Reminders, _ = mapSlice(req.Reminders, mapToReminder)
	}

	event, err := a.calendar.Update(r.Context(), id, patch)
	if err != nil {
		a.engineErrorResponse(w, r, err)
		return
	}

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) cancelEventHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.badRequestResponse(w, r, fmt.Errorf("invalid event id: %w", err))
		return
	}

	if err := a.calendar.Cancel(r.Context(), id); err != nil {
		a.engineErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) checkConflictsHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		ID        string   `json:"id"`
		AllDay    bool     `json:"all_day"`
		StartTime dateTime `json:"start_time"`
		EndTime   dateTime `json:"end_time"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	candidate := &model.Event{
		EventCreate: model.EventCreate{
			AllDay:    req.AllDay,
			StartTime: time.Time(req.StartTime).UTC(),
			EndTime:   time.Time(req.EndTime).UTC(),
		},
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			a.badRequestResponse(w, r, fmt.Errorf("invalid event id: %w", err))
			return
		}
		candidate.ID = id
	}

	conflicts, err := a.calendar.CheckConflicts(r.Context(), candidate)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("check conflicts: %w", err))
		return
	}

	events, _ := mapSlice(conflicts, mapToEventResp)
	resp := map[string]interface{}{
		"conflict_count": len(conflicts),
		"conflicts":      events,
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) getTodayEventsHandler(w http.ResponseWriter, r *http.Request) {
	a.rangeEventsResponse(w, r, a.calendar.EventsToday)
}

func (a *Api) getWeekEventsHandler(w http.ResponseWriter, r *http.Request) {
	a.rangeEventsResponse(w, r, a.calendar.EventsThisWeek)
}

func (a *Api) getMonthEventsHandler(w http.ResponseWriter, r *http.Request) {
	a.rangeEventsResponse(w, r, a.calendar.EventsThisMonth)
}

func (a *Api) rangeEventsResponse(w http.ResponseWriter, r *http.Request, query func(ctx context.Context, ref time.Time) ([]*model.Event, error)) {
	ref := time.Now().UTC()
	if v := r.URL.Query().Get("ref"); v != "" {
		var err error
		ref, err = time.Parse(dateTimeFormat, v)
		if err != nil {
			a.badRequestResponse(w, r, fmt.Errorf("invalid time format: %w", err))
			return
		}
	}

	events, err := query(r.Context(), ref)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("query events: %w", err))
		return
	}

	resp, _ := mapSlice(events, mapToEventResp)

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func parseEventsQuery(r *http.Request) (*model.EventsFilter, error) {
	var err error

	res := &model.EventsFilter{}

	if v := r.URL.Query().Get("from"); v != "" {
		res.From, err = time.Parse(dateTimeFormat, v)
		if err != nil {
			return nil, fmt.Errorf("invalid time format: %w", err)
		}
	}

	if v := r.URL.Query().Get("to"); v != "" {
		res.To, err = time.Parse(dateTimeFormat, v)
		if err != nil {
			return nil, fmt.Errorf("invalid time format: %w", err)
		}
	}

	if v := r.URL.Query().Get("type"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid event type %v", v)
		}
		eventType := model.EventType(t)
		res.EventType = &eventType
	}

	if v := r.URL.Query().Get("status"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid status %v", v)
		}
		status := model.Status(s)
		res.Status = &status
	}

	res.CustomerID = r.URL.Query().Get("customer_id")

	return res, nil
}
