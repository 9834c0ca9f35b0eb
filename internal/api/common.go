package api

import (
	"fmt"
	"time"

	"github.com/rosterhq/crm-calendar-backend/internal/model"
)

const dateTimeFormat = time.RFC3339

type dateTime time.Time

func (d dateTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(d).Format(dateTimeFormat))), nil
}

func (d *dateTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid time %s", s)
	}

	t, err := time.Parse(dateTimeFormat, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid time format: %w", err)
	}

	*d = dateTime(t)
	return nil
}

type attendeeReq struct {
	Email    string               `json:"email"`
	Name     string               `json:"name"`
	Role     model.AttendeeRole   `json:"role"`
	Response model.ResponseStatus `json:"response"`
}

type reminderReq struct {
	Channel       model.ReminderChannel `json:"channel"`
	MinutesBefore int                   `json:"minutes_before"`
}

type recurrenceReq struct {
	Frequency model.Frequency `json:"frequency"`
	Interval  int             `json:"interval"`
	Weekdays  []int           `json:"weekdays"`
	Until     *dateTime       `json:"until"`
	Count     *int            `json:"count"`
}

func mapToAttendee(req *attendeeReq) (*model.Attendee, error) {
	return &model.Attendee{
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		Response: req.Response,
	}, nil
}

func mapToReminder(req *reminderReq) (*model.Reminder, error) {
	return &model.Reminder{
		Channel:       req.Channel,
		MinutesBefore: req.MinutesBefore,
	}, nil
}

func mapToRecurrence(req *recurrenceReq) *model.Recurrence {
	if req == nil {
		return nil
	}

	rec := &model.Recurrence{
		Frequency: req.Frequency,
		Interval:  req.Interval,
		Count:     req.Count,
	}
	for _, wd := range req.Weekdays {
		rec.Weekdays = append(rec.Weekdays, time.Weekday(wd))
	}
	if req.Until != nil {
		t := time.Time(*req.Until)
		rec.Until = &t
	}

	return rec
}

type eventResp struct {
	ID           string          `json:"id"`
	EventType    model.EventType `json:"event_type"`
	Category     model.Category  `json:"category"`
	Priority     model.Priority  `json:"priority"`
	Status       model.Status    `json:"status"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location,omitempty"`
	AllDay       bool            `json:"all_day"`
	StartTime    dateTime        `json:"start_time"`
	EndTime      dateTime        `json:"end_time"`
	CustomerID   string          `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	Attendees    []*attendeeReq  `json:"attendees,omitempty"`
	Reminders    []*reminderReq  `json:"reminders,omitempty"`
	RepeatRule   string          `json:"repeat_rule,omitempty"`
	CreatedAt    dateTime        `json:"created_at"`
	UpdatedAt    dateTime        `json:"updated_at"`
}

func mapToEventResp(event *model.Event) (*eventResp, error) {
	attendees, _ := mapSlice(event.Attendees, func(a *model.Attendee) (*attendeeReq, error) {
		return &attendeeReq{Email: a.Email, Name: a.Name, Role: a.Role, Response: a.Response}, nil
	})
	reminders, _ := mapSlice(event.Reminders, func(rem *model.Reminder) (*reminderReq, error) {
		return &reminderReq{Channel: rem.Channel, MinutesBefore: rem.MinutesBefore}, nil
	})

	return &eventResp{
		ID:           event.ID.String(),
		EventType:    event.EventType,
		Category:     event.Category,
		Priority:     event.Priority,
		Status:       event.Status,
		Title:        event.Title,
		Description:  event.Description,
		Location:     event.Location,
		AllDay:       event.AllDay,
		StartTime:    dateTime(event.StartTime),
		EndTime:      dateTime(event.EndTime),
		CustomerID:   event.CustomerID,
		CustomerName: event.CustomerName,
		CreatedBy:    event.CreatedBy,
		Attendees:    attendees,
		Reminders:    reminders,
		RepeatRule:   event.RepeatRule,
		CreatedAt:    dateTime(event.CreatedAt),
		UpdatedAt:    dateTime(event.UpdatedAt),
	}, nil
}

type timeSlotResp struct {
	Start     dateTime `json:"start"`
	End       dateTime `json:"end"`
	Available bool     `json:"available"`
}

func mapToTimeSlotResp(slot *model.TimeSlot) (*timeSlotResp, error) {
	return &timeSlotResp{
		Start:     dateTime(slot.Start),
		End:       dateTime(slot.End),
		Available: slot.Available,
	}, nil
}
