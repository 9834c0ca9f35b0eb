package calendar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
)

const productID = "-//rosterhq//crm-calendar-backend//EN"

// ExportICal serializes events into an iCalendar text block. Timestamps are
// emitted in UTC basic format; attendee lines carry name, participation
// status and role. DTSTAMP comes from CreatedAt so output is deterministic.
func ExportICal(events []*model.Event) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, event := range events {
		cal.Children = append(cal.Children, toVEvent(event))
	}

	var sb strings.Builder
	if err := ical.NewEncoder(&sb).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}

	return sb.String(), nil
}

func toVEvent(event *model.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID.String())
	ve.Props.SetDateTime(ical.PropDateTimeStamp, event.CreatedAt.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime.UTC())
	ve.Props.SetText(ical.PropSummary, event.Title)

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}

	priority := ical.NewProp(ical.PropPriority)
	priority.Value = strconv.Itoa(priorityTier(event.Priority))
	ve.Props.Set(priority)

	status := ical.NewProp(ical.PropStatus)
	status.Value = strings.ToUpper(event.Status.String())
	ve.Props.Set(status)

	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		if attendee.Name != "" {
			p.Params.Set(ical.ParamCommonName, attendee.Name)
		}
		p.Params.Set(ical.ParamParticipationStatus, participationStatus(attendee.Response))
		p.Params.Set(ical.ParamRole, attendeeRole(attendee.Role))
		p.Value = "mailto:" + attendee.Email
		ve.Props.Add(p)
	}

	return ve
}

func priorityTier(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 1
	case model.PriorityLow:
		return 9
	default:
		return 5
	}
}

func participationStatus(r model.ResponseStatus) string {
	switch r {
	case model.ResponseAccepted:
		return "ACCEPTED"
	case model.ResponseDeclined:
		return "DECLINED"
	case model.ResponseTentative:
		return "TENTATIVE"
	default:
		return "NEEDS-ACTION"
	}
}

func attendeeRole(r model.AttendeeRole) string {
	switch r {
	case model.RoleOrganizer:
		return "CHAIR"
	case model.RoleOptional:
		return "OPT-PARTICIPANT"
	default:
		return "REQ-PARTICIPANT"
	}
}
