// Package server exposes the extraction pipeline over HTTP. Handlers are
// thin glue: each request runs its own orchestrator and relays either the
// finished calendar artifact or the classified error, never a partial state.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"textcal/internal/calendar"
	"textcal/internal/config"
	"textcal/internal/event"
	"textcal/internal/parse"
	"textcal/internal/pipeline"
)

type Server struct {
	settings *config.Settings
	client   pipeline.Completer
	parser   *parse.Parser
	encoder  *calendar.Encoder
}

func New(settings *config.Settings, client pipeline.Completer, parser *parse.Parser, encoder *calendar.Encoder) *Server {
	return &Server{settings: settings, client: client, parser: parser, encoder: encoder}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/v1/events", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/v1/events/ics", s.handleCreateICS).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

type createRequest struct {
	Text string `json:"text"`
}

// eventResponse exposes every draft field the system-calendar handoff
// needs, including the reminder-on flag and lead minutes.
type eventResponse struct {
	Summary         string   `json:"summary"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Description     *string  `json:"description"`
	Location        *string  `json:"location"`
	Attendees       []string `json:"attendees"`
	ReminderMinutes int      `json:"reminderMinutes"`
	HasReminder     bool     `json:"hasReminder"`
}

type createResponse struct {
	Event    eventResponse `json:"event"`
	Filename string        `json:"filename"`
	Calendar string        `json:"calendar"`
}

type errorResponse struct {
	Kind    event.Kind `json:"kind"`
	Message string     `json:"message"`
	Field   string     `json:"field,omitempty"`
	Status  int        `json:"status,omitempty"`
	Body    string     `json:"body,omitempty"`
	Raw     string     `json:"raw,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}

	draft, artifact, perr := s.run(r, text)
	if perr != nil {
		writeError(w, perr)
		return
	}

	writeJSON(w, http.StatusOK, createResponse{
		Event: eventResponse{
			Summary:         draft.Summary,
			StartTime:       draft.Start.Format(parse.TimeLayout),
			EndTime:         draft.End.Format(parse.TimeLayout),
			Description:     draft.Description,
			Location:        draft.Location,
			Attendees:       draft.Attendees,
			ReminderMinutes: draft.ReminderMinutes,
			HasReminder:     draft.HasReminder(),
		},
		Filename: artifact.Name,
		Calendar: string(artifact.Data),
	})
}

// handleCreateICS replies with the raw artifact bytes, ready to hand off to
// any calendar application.
func (s *Server) handleCreateICS(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}

	_, artifact, perr := s.run(r, text)
	if perr != nil {
		writeError(w, perr)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "bad_request", Message: "invalid JSON body"})
		return "", false
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "bad_request", Message: "text is required"})
		return "", false
	}
	return req.Text, true
}

// run executes one attempt on a fresh orchestrator and drains its update
// stream until the terminal state.
func (s *Server) run(r *http.Request, text string) (*event.Draft, *calendar.Artifact, *event.Error) {
	ctx := r.Context()

	orch := pipeline.New(s.settings, s.client, s.parser, s.encoder)
	updates, err := orch.Submit(ctx, text)
	if err != nil {
		return nil, nil, &event.Error{Kind: event.KindTransportFailure, Err: err}
	}

	var last pipeline.Update
	for u := range updates {
		if u.Message != "" {
			slog.InfoContext(ctx, "Extraction progress", "state", u.State, "message", u.Message)
		}
		last = u
	}

	if last.State != pipeline.StateCompleted {
		return nil, nil, last.Err
	}
	return last.Draft, last.Artifact, nil
}

// statusFor maps the closed error set onto HTTP statuses.
func statusFor(kind event.Kind) int {
	switch kind {
	case event.KindInputTooLong, event.KindMalformedReply, event.KindValidationFailure:
		return http.StatusBadRequest
	case event.KindUnauthenticated:
		return http.StatusUnauthorized
	case event.KindTransportFailure, event.KindHTTPFailure:
		return http.StatusBadGateway
	case event.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, perr *event.Error) {
	writeJSON(w, statusFor(perr.Kind), errorResponse{
		Kind:    perr.Kind,
		Message: perr.Error(),
		Field:   perr.Field,
		Status:  perr.Status,
		Body:    perr.Body,
		Raw:     perr.Raw,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
