// Package calendar serializes a validated event draft into an RFC 5545
// calendar artifact: one VCALENDAR with one VEVENT, plus one VALARM when a
// reminder is requested.
package calendar

import (
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"textcal/internal/event"
)

// Artifact is the serialized calendar plus a suggested filename. The caller
// owns it once returned; the encoder keeps no reference.
type Artifact struct {
	Name string
	Data []byte
}

const (
	productID = "-//textcal//textcal//EN"
	fileName  = "event.ics"

	// icsLocalLayout is the DATE-TIME form used together with a TZID
	// parameter, deliberately without a trailing Z.
	icsLocalLayout = "20060102T150405"
)

type Encoder struct {
	loc *time.Location
}

// New returns an encoder that tags event times with loc's IANA identifier.
// A nil loc means the system's local zone.
func New(loc *time.Location) *Encoder {
	if loc == nil {
		loc = time.Local
	}
	return &Encoder{loc: loc}
}

// Encode builds the calendar artifact for draft. The ordering invariant
// End > Start is enforced here, not in the parser, so a reply that passed
// structural validation can still be rejected before anything is emitted.
func (e *Encoder) Encode(draft *event.Draft, generatedAt time.Time) (*Artifact, error) {
	if draft.Summary == "" {
		return nil, &event.Error{Kind: event.KindEncodingFailure, Err: errors.New("empty summary")}
	}
	if !draft.End.After(draft.Start) {
		return nil, &event.Error{
			Kind: event.KindEncodingFailure,
			Err:  fmt.Errorf("end %s is not after start %s", draft.End.Format(time.DateTime), draft.Start.Format(time.DateTime)),
		}
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{e.loc.String()}}

	ev := cal.AddEvent(uuid.NewString())
	ev.SetCreatedTime(generatedAt)
	ev.SetDtStampTime(generatedAt)
	ev.SetSummary(draft.Summary)
	ev.SetStatus(ics.ObjectStatusConfirmed)

	// Local wall-clock time with an explicit TZID on both endpoints; the
	// artifact must display correctly wherever it is opened later.
	ev.SetProperty(ics.ComponentPropertyDtStart, draft.Start.In(e.loc).Format(icsLocalLayout), tzid)
	ev.SetProperty(ics.ComponentPropertyDtEnd, draft.End.In(e.loc).Format(icsLocalLayout), tzid)

	// Absent means the property is not emitted at all; an explicit empty
	// string from the model still round-trips.
	if draft.Description != nil {
		ev.SetDescription(*draft.Description)
	}
	if draft.Location != nil {
		ev.SetLocation(*draft.Location)
	}

	for _, addr := range draft.Attendees {
		ev.AddAttendee(addr)
	}

	if draft.HasReminder() {
		alarm := ev.AddAlarm()
		alarm.SetProperty(ics.ComponentProperty(ics.PropertyAction), string(ics.ActionDisplay))
		alarm.SetProperty(ics.ComponentProperty(ics.PropertyTrigger),
			fmt.Sprintf("-PT%dM", draft.ReminderMinutes),
			&ics.KeyValues{Key: string(ics.ParameterValue), Value: []string{"DURATION"}})
		alarm.SetProperty(ics.ComponentPropertyDescription, draft.Summary)
	}

	return &Artifact{Name: fileName, Data: []byte(cal.Serialize(ics.WithNewLineWindows))}, nil
}
