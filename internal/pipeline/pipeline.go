// Package pipeline supervises one extraction attempt end to end: prompt
// construction, the remote completion call, parsing and calendar encoding,
// all under a single deadline. Callers observe a finite sequence of state
// updates terminated by exactly one Completed or Failed.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"textcal/internal/calendar"
	"textcal/internal/config"
	"textcal/internal/event"
	"textcal/internal/extract"
	"textcal/internal/parse"
	"textcal/internal/prompt"
)

type State string

const (
	StateIdle          State = "idle"
	StateSubmitting    State = "submitting"
	StateAwaitingModel State = "awaiting_model"
	StateEncoding      State = "encoding"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// Update is one observed transition. Progress updates carry a message;
// the terminal update carries either the draft and artifact or the error,
// never both and never a partial result.
type Update struct {
	State    State
	Message  string
	Draft    *event.Draft
	Artifact *calendar.Artifact
	Err      *event.Error
}

// Completer is the extraction client seam; tests substitute a double with
// function fields.
type Completer interface {
	Complete(ctx context.Context, req extract.Request) (string, error)
}

// ErrBusy rejects a submission while another attempt is in flight. The
// orchestrator does not queue.
var ErrBusy = errors.New("an extraction attempt is already in flight")

type Orchestrator struct {
	settings *config.Settings
	client   Completer
	parser   *parse.Parser
	encoder  *calendar.Encoder
	now      func() time.Time

	inFlight atomic.Bool
	mu       sync.Mutex
	cancel   context.CancelFunc
}

func New(settings *config.Settings, client Completer, parser *parse.Parser, encoder *calendar.Encoder) *Orchestrator {
	return &Orchestrator{
		settings: settings,
		client:   client,
		parser:   parser,
		encoder:  encoder,
		now:      time.Now,
	}
}

// Submit starts one attempt for text and returns the update stream. The
// stream is closed after the terminal update. Length and credential checks
// happen before any network call.
func (o *Orchestrator) Submit(ctx context.Context, text string) (<-chan Update, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	updates := make(chan Update, 8)

	if n := utf8.RuneCountInString(text); n > o.settings.MaxInputChars {
		o.inFlight.Store(false)
		updates <- Update{State: StateFailed, Err: &event.Error{
			Kind: event.KindInputTooLong,
			Err:  errors.New("input exceeds configured maximum"),
		}}
		close(updates)
		return updates, nil
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.settings.Deadline)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	go o.run(attemptCtx, cancel, text, updates)
	return updates, nil
}

// Cancel aborts the in-flight attempt, including the underlying HTTP
// request. A no-op when nothing is running.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, text string, updates chan<- Update) {
	defer close(updates)
	defer o.inFlight.Store(false)
	defer cancel()

	fail := func(err error) {
		pe := o.classify(ctx, err)
		slog.ErrorContext(ctx, "Extraction attempt failed", "kind", pe.Kind, "error", pe)
		updates <- Update{State: StateFailed, Err: pe}
	}

	updates <- Update{State: StateSubmitting}

	now := o.now()
	req := extract.Request{
		BaseURL:      o.settings.BaseURL,
		APIKey:       o.settings.APIKey,
		Model:        o.settings.Model,
		SystemPrompt: prompt.SystemPrompt(now),
		UserMessage:  prompt.UserMessage(text),
	}

	updates <- Update{State: StateAwaitingModel, Message: "analyzing text..."}

	raw, err := o.client.Complete(ctx, req)
	if err != nil {
		fail(err)
		return
	}

	updates <- Update{State: StateAwaitingModel, Message: "parsing event..."}

	draft, err := o.parser.Parse(raw)
	if err != nil {
		fail(err)
		return
	}

	updates <- Update{State: StateEncoding, Message: "generating calendar file..."}

	artifact, err := o.encoder.Encode(draft, o.now())
	if err != nil {
		fail(err)
		return
	}

	// The deadline covers the whole span; a reply that arrived just in
	// time but left no room to encode still counts as a timeout.
	if ctx.Err() != nil {
		fail(ctx.Err())
		return
	}

	slog.InfoContext(ctx, "Extraction attempt completed", "summary", draft.Summary, "artifact", artifact.Name)
	updates <- Update{State: StateCompleted, Draft: draft, Artifact: artifact}
}

// classify keeps the closed error set closed: deadline expiry wins over the
// stage error, and anything unclassified is a transport failure.
func (o *Orchestrator) classify(ctx context.Context, err error) *event.Error {
	if ctx.Err() != nil {
		var pe *event.Error
		if errors.As(err, &pe) && pe.Kind == event.KindTimeout {
			return pe
		}
		return &event.Error{Kind: event.KindTimeout, Err: err}
	}

	var pe *event.Error
	if errors.As(err, &pe) {
		return pe
	}
	return &event.Error{Kind: event.KindTransportFailure, Err: err}
}
