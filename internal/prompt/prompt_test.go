package prompt

import (
	"strings"
	"testing"
	"time"
)

func TestSystemPrompt(t *testing.T) {
	ref := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	t.Run("is deterministic for a given reference date", func(t *testing.T) {
		if SystemPrompt(ref) != SystemPrompt(ref) {
			t.Error("prompt should be identical for identical reference dates")
		}
	})

	t.Run("encodes the reference date", func(t *testing.T) {
		p := SystemPrompt(ref)
		if !strings.Contains(p, "2025-06-01") {
			t.Errorf("prompt should contain the reference date, got:\n%s", p)
		}
		if !strings.Contains(p, "Sunday") {
			t.Error("prompt should contain the reference weekday")
		}
	})

	t.Run("names all seven contract fields", func(t *testing.T) {
		p := SystemPrompt(ref)
		for _, field := range []string{"summary", "startTime", "endTime", "location", "description", "attendees", "reminderMinutes"} {
			if !strings.Contains(p, `"`+field+`"`) {
				t.Errorf("prompt should name field %q", field)
			}
		}
	})

	t.Run("includes the holiday schedule for a published year", func(t *testing.T) {
		p := SystemPrompt(ref)
		for _, want := range []string{
			"Spring Festival",
			"2025-01-28 to 2025-02-04",
			"makeup workdays: 2025-09-28, 2025-10-11",
		} {
			if !strings.Contains(p, want) {
				t.Errorf("prompt should contain %q", want)
			}
		}
	})

	t.Run("degrades for a year without a schedule", func(t *testing.T) {
		p := SystemPrompt(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
		if !strings.Contains(p, "No official holiday schedule is available for 2031") {
			t.Error("prompt should state that no schedule exists for the year")
		}
		if strings.Contains(p, "Spring Festival (春节): 2025") {
			t.Error("prompt should not leak another year's schedule")
		}
	})

	t.Run("states the defaults the model must apply", func(t *testing.T) {
		p := SystemPrompt(ref)
		for _, want := range []string{"1 hour", "1.5 hours", "09:00", "14:00", "reminderMinutes: 15"} {
			if !strings.Contains(p, want) {
				t.Errorf("prompt should state default %q", want)
			}
		}
	})
}

func TestUserMessage(t *testing.T) {
	msg := UserMessage("lunch with Bob tomorrow 1pm")
	if !strings.Contains(msg, "lunch with Bob tomorrow 1pm") {
		t.Error("user message should carry the raw input verbatim")
	}
}
