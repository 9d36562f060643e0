package parse

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"textcal/internal/event"
)

func TestParse(t *testing.T) {
	p := New(time.UTC)

	t.Run("maps null optionals to absent and applies defaults", func(t *testing.T) {
		raw := `{"summary":"Lunch","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","location":null,"description":null,"attendees":null,"reminderMinutes":null}`

		draft, err := p.Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &event.Draft{
			Summary:         "Lunch",
			Start:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			End:             time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
			Attendees:       []string{},
			ReminderMinutes: 15,
		}
		if diff := cmp.Diff(want, draft); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("tolerates prose and code fences around the object", func(t *testing.T) {
		raw := "Here is your event:\n```json\n{\"summary\":\"Standup\",\"startTime\":\"2025-06-02T09:00:00\",\"endTime\":\"2025-06-02T09:30:00\"}\n```\nLet me know if you need changes."

		draft, err := p.Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if draft.Summary != "Standup" {
			t.Errorf("expected summary 'Standup', got %q", draft.Summary)
		}
	})

	t.Run("is idempotent on well-formed input", func(t *testing.T) {
		raw := `{"summary":"Sync","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","attendees":["a@example.com","a@example.com"],"reminderMinutes":30}`

		first, err := p.Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := p.Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("repeated parse should be identical (-first +second):\n%s", diff)
		}
		if len(first.Attendees) != 2 {
			t.Errorf("duplicate attendees must be preserved, got %v", first.Attendees)
		}
	})

	t.Run("preserves explicit empty strings as present", func(t *testing.T) {
		raw := `{"summary":"Call","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T12:30:00","location":""}`

		draft, err := p.Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if draft.Location == nil || *draft.Location != "" {
			t.Errorf("explicit empty location should stay present, got %v", draft.Location)
		}
		if draft.Description != nil {
			t.Error("absent description should be nil")
		}
	})

	t.Run("does not enforce end after start", func(t *testing.T) {
		raw := `{"summary":"Odd","startTime":"2025-06-01T13:00:00","endTime":"2025-06-01T12:00:00"}`

		if _, err := p.Parse(raw); err != nil {
			t.Errorf("ordering is the encoder's invariant, parser should pass it through: %v", err)
		}
	})

	t.Run("ignores unknown fields", func(t *testing.T) {
		raw := `{"summary":"X","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","confidence":0.9,"reasoning":"because"}`

		if _, err := p.Parse(raw); err != nil {
			t.Errorf("unknown fields must be ignored: %v", err)
		}
	})

	t.Run("fails with malformed reply when no braces exist", func(t *testing.T) {
		_, err := p.Parse("sorry, I could not find an event in that text")
		assertKind(t, err, event.KindMalformedReply)
	})

	t.Run("fails with malformed reply on undecodable JSON", func(t *testing.T) {
		_, err := p.Parse(`{"summary": "Lunch", nope}`)
		assertKind(t, err, event.KindMalformedReply)
	})

	t.Run("carries the raw reply on failures", func(t *testing.T) {
		raw := `{"summary":"Lunch","startTime":"not-a-date","endTime":"2025-06-01T13:00:00"}`
		_, err := p.Parse(raw)

		var pe *event.Error
		if !asPipelineError(err, &pe) {
			t.Fatalf("expected pipeline error, got %v", err)
		}
		if pe.Raw != raw {
			t.Error("failure should carry the raw reply for diagnostics")
		}
		if pe.Field != "startTime" {
			t.Errorf("expected field 'startTime', got %q", pe.Field)
		}
	})

	validationCases := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing summary", `{"startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00"}`, "summary"},
		{"empty summary", `{"summary":"","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00"}`, "summary"},
		{"null startTime", `{"summary":"X","startTime":null,"endTime":"2025-06-01T13:00:00"}`, "startTime"},
		{"wrong time format", `{"summary":"X","startTime":"2025-06-01 12:00:00","endTime":"2025-06-01T13:00:00"}`, "startTime"},
		{"missing endTime", `{"summary":"X","startTime":"2025-06-01T12:00:00"}`, "endTime"},
		{"non-string location", `{"summary":"X","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","location":7}`, "location"},
		{"non-array attendees", `{"summary":"X","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","attendees":"bob"}`, "attendees"},
		{"negative reminder", `{"summary":"X","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","reminderMinutes":-5}`, "reminderMinutes"},
		{"non-integer reminder", `{"summary":"X","startTime":"2025-06-01T12:00:00","endTime":"2025-06-01T13:00:00","reminderMinutes":"soon"}`, "reminderMinutes"},
	}

	for _, tc := range validationCases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			_, err := p.Parse(tc.raw)
			assertKind(t, err, event.KindValidationFailure)

			var pe *event.Error
			if asPipelineError(err, &pe) && pe.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, pe.Field)
			}
		})
	}
}

func assertKind(t *testing.T, err error, want event.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := event.KindOf(err); got != want {
		t.Fatalf("expected kind %q, got %q (%v)", want, got, err)
	}
}

func asPipelineError(err error, target **event.Error) bool {
	pe, ok := err.(*event.Error)
	if ok {
		*target = pe
	}
	return ok
}
