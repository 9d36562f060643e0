// Package parse turns the model's free-form reply into a validated event
// draft. The model may wrap the JSON in prose or code fences; the parser
// takes the substring between the first '{' and the last '}' and validates
// only structure, never the model's judgement.
package parse

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"textcal/internal/event"
)

// TimeLayout is the local wall-clock format the prompt instructs the model
// to emit. No UTC offset is carried; the configured location supplies it.
const TimeLayout = "2006-01-02T15:04:05"

const defaultReminderMinutes = 15

type Parser struct {
	loc *time.Location
}

// New returns a parser that interprets timestamps in loc. A nil loc means
// the system's local zone.
func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc}
}

// Parse extracts and validates the event draft embedded in raw. It reads
// exactly the seven contract fields and ignores anything else the model
// added. The raw reply rides along on every failure for diagnostics.
func (p *Parser) Parse(raw string) (*event.Draft, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, &event.Error{Kind: event.KindMalformedReply, Raw: raw, Err: errors.New("no JSON object in reply")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return nil, &event.Error{Kind: event.KindMalformedReply, Raw: raw, Err: err}
	}

	draft := &event.Draft{}

	summary, err := p.requiredString(fields, "summary", raw)
	if err != nil {
		return nil, err
	}
	draft.Summary = summary

	if draft.Start, err = p.requiredTime(fields, "startTime", raw); err != nil {
		return nil, err
	}
	if draft.End, err = p.requiredTime(fields, "endTime", raw); err != nil {
		return nil, err
	}

	if draft.Description, err = p.optionalString(fields, "description", raw); err != nil {
		return nil, err
	}
	if draft.Location, err = p.optionalString(fields, "location", raw); err != nil {
		return nil, err
	}

	if draft.Attendees, err = p.attendees(fields, raw); err != nil {
		return nil, err
	}
	if draft.ReminderMinutes, err = p.reminder(fields, raw); err != nil {
		return nil, err
	}

	return draft, nil
}

func (p *Parser) requiredString(fields map[string]json.RawMessage, name, raw string) (string, error) {
	msg, ok := fields[name]
	if !ok || isNull(msg) {
		return "", p.invalid(name, raw, errors.New("missing"))
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", p.invalid(name, raw, err)
	}
	if s == "" {
		return "", p.invalid(name, raw, errors.New("empty"))
	}
	return s, nil
}

func (p *Parser) requiredTime(fields map[string]json.RawMessage, name, raw string) (time.Time, error) {
	s, err := p.requiredString(fields, name, raw)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(TimeLayout, s, p.loc)
	if err != nil {
		return time.Time{}, p.invalid(name, raw, err)
	}
	return t, nil
}

// optionalString maps JSON null and absence to nil, which the encoder
// treats as "omit the property". An explicit empty string stays a pointer.
func (p *Parser) optionalString(fields map[string]json.RawMessage, name, raw string) (*string, error) {
	msg, ok := fields[name]
	if !ok || isNull(msg) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return nil, p.invalid(name, raw, err)
	}
	return &s, nil
}

func (p *Parser) attendees(fields map[string]json.RawMessage, raw string) ([]string, error) {
	msg, ok := fields["attendees"]
	if !ok || isNull(msg) {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(msg, &list); err != nil {
		return nil, p.invalid("attendees", raw, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (p *Parser) reminder(fields map[string]json.RawMessage, raw string) (int, error) {
	msg, ok := fields["reminderMinutes"]
	if !ok || isNull(msg) {
		return defaultReminderMinutes, nil
	}
	var n int
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0, p.invalid("reminderMinutes", raw, err)
	}
	if n < 0 {
		return 0, p.invalid("reminderMinutes", raw, errors.New("negative"))
	}
	return n, nil
}

func (p *Parser) invalid(field, raw string, err error) *event.Error {
	return &event.Error{Kind: event.KindValidationFailure, Field: field, Raw: raw, Err: err}
}

func isNull(msg json.RawMessage) bool {
	return string(msg) == "null"
}
