package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds everything the extraction pipeline needs per attempt. The
// core never persists these; they are read once at startup and handed to the
// orchestrator on each submission.
type Settings struct {
	// APIKey is the bearer credential for the chat-completion endpoint.
	APIKey string

	// BaseURL is the chat-completion API root, e.g. "https://api.deepseek.com/v1".
	// The client appends /chat/completions.
	BaseURL string

	// Model is the model identifier sent with every request.
	Model string

	// Timezone is the IANA zone used to interpret and encode event times.
	Timezone string

	// MaxInputChars caps the length of a single submission, counted in runes.
	MaxInputChars int

	// Deadline bounds one whole attempt: network call, parse and encode.
	Deadline time.Duration

	// Addr is the HTTP listen address.
	Addr string
}

const (
	defaultBaseURL  = "https://api.deepseek.com/v1"
	defaultModel    = "deepseek-chat"
	defaultMaxChars = 4000
	defaultDeadline = 3 * time.Minute
	defaultAddr     = ":8080"
)

// Load reads settings from the environment, optionally seeded by a .env file
// in the working directory. Missing optional values fall back to defaults;
// the API key is validated lazily by the pipeline so the server can start
// without one.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		APIKey:        os.Getenv("TEXTCAL_API_KEY"),
		BaseURL:       os.Getenv("TEXTCAL_BASE_URL"),
		Model:         os.Getenv("TEXTCAL_MODEL"),
		Timezone:      os.Getenv("TEXTCAL_TIMEZONE"),
		MaxInputChars: defaultMaxChars,
		Deadline:      defaultDeadline,
		Addr:          os.Getenv("TEXTCAL_ADDR"),
	}

	if v := os.Getenv("TEXTCAL_MAX_INPUT_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid TEXTCAL_MAX_INPUT_CHARS %q", v)
		}
		s.MaxInputChars = n
	}

	if v := os.Getenv("TEXTCAL_DEADLINE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TEXTCAL_DEADLINE %q", v)
		}
		s.Deadline = d
	}

	s.Normalize()
	return s, nil
}

// Normalize fills in zero values so partially specified settings still
// behave correctly.
func (s *Settings) Normalize() {
	if s.BaseURL == "" {
		s.BaseURL = defaultBaseURL
	}
	if s.Model == "" {
		s.Model = defaultModel
	}
	if s.MaxInputChars <= 0 {
		s.MaxInputChars = defaultMaxChars
	}
	if s.Deadline <= 0 {
		s.Deadline = defaultDeadline
	}
	if s.Addr == "" {
		s.Addr = defaultAddr
	}
}

// Location resolves the configured timezone, defaulting to the system zone.
func (s *Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TEXTCAL_TIMEZONE %q: %w", s.Timezone, err)
	}
	return loc, nil
}
