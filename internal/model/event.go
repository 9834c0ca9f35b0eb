package model

import (
	"time"

	"github.com/google/uuid"
)

type EventCreate struct {
	EventType    EventType
	Category     Category
	Priority     Priority
	Title        string
	Description  string
	Location     string
	AllDay       bool
	StartTime    time.Time
	EndTime      time.Time
	CustomerID   string
	CustomerName string
	CreatedBy    string
	Attendees    []*Attendee
	Reminders    []*Reminder
	Recurrence   *Recurrence

	// IgnoreConflicts skips the create-time conflict gate.
	IgnoreConflicts bool
}

type Event struct {
	ID         uuid.UUID
	Status     Status
	RepeatRule string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	EventCreate
}

// EventPatch is a partial update: nil fields are left untouched.
type EventPatch struct {
	EventType    *EventType
	Category     *Category
	Priority     *Priority
	Status       *Status
	Title        *string
	Description  *string
	Location     *string
	AllDay       *bool
	StartTime    *time.Time
	EndTime      *time.Time
	CustomerID   *string
	CustomerName *string
	Attendees    []*Attendee
	Reminders    []*Reminder
	Recurrence   *Recurrence

	IgnoreConflicts bool
}

type Attendee struct {
	Email    string
	Name     string
	Role     AttendeeRole
	Response ResponseStatus
}

type Reminder struct {
	Channel       ReminderChannel
	MinutesBefore int
}

type Recurrence struct {
	Frequency Frequency
	Interval  int
	Weekdays  []time.Weekday
	Until     *time.Time
	Count     *int
}

// TimeSlot is a candidate interval of requested duration, tagged against
// existing events.
type TimeSlot struct {
	Start     time.Time
	End       time.Time
	Available bool
}

// SlotConstraints narrows a slot search; nil hours fall back to the
// engine-wide working hours.
type SlotConstraints struct {
	StartHour       *int
	EndHour         *int
	ExcludeWeekends bool
}

type SuggestionPrefs struct {
	PreferredDays  []time.Weekday
	PreferredHours []int
	AvoidLunch     bool
}

type EventsFilter struct {
	From       time.Time
	To         time.Time
	EventType  *EventType
	Status     *Status
	CustomerID string
}

type EventType int

const (
	EventTypeMeeting EventType = iota
	EventTypeCall
	EventTypeTask
	EventTypeReminder
	EventTypeHoliday
)

type Category int

const (
	CategorySales Category = iota
	CategorySupport
	CategoryInternal
	CategoryPersonal
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

type Status int

// Transitions are forward-only; cancelled is terminal and reachable only
// through Engine.Cancel.
const (
	StatusScheduled Status = iota
	StatusConfirmed
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusConfirmed:
		return "confirmed"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type AttendeeRole int

const (
	RoleOrganizer AttendeeRole = iota
	RoleRequired
	RoleOptional
)

type ResponseStatus int

const (
	ResponsePending ResponseStatus = iota
	ResponseAccepted
	ResponseDeclined
	ResponseTentative
)

type ReminderChannel int

const (
	ChannelPopup ReminderChannel = iota
	ChannelEmail
)

type Frequency int

const (
	FrequencyDaily Frequency = iota
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
)
