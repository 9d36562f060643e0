// Package extract issues the chat-completion call that turns raw text into
// the model's JSON reply. One request per user submission; retry is the
// user's resubmission, never this layer's.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"textcal/internal/event"
)

// Request carries everything one extraction attempt needs. Built once per
// submission and never mutated.
type Request struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	UserMessage  string
}

// extractionTemperature keeps the model close to deterministic so the same
// text yields the same structured reply.
const extractionTemperature = 0.1

// Client talks to a chat-completion endpoint. The zero value is usable; the
// underlying HTTP transport is shared across attempts but holds no
// attempt-specific state.
type Client struct{}

func New() *Client {
	return &Client{}
}

// Complete sends the two-message conversation and returns the assistant's
// raw reply text. The caller's context carries the attempt deadline;
// cancelling it aborts the underlying HTTP request.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", &event.Error{Kind: event.KindUnauthenticated}
	}

	slog.InfoContext(ctx, "Requesting event extraction", "model", req.Model, "base_url", req.BaseURL)

	cli := openai.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(req.BaseURL),
		option.WithMaxRetries(0),
	)

	resp, err := cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserMessage),
		},
		Temperature: openai.Float(extractionTemperature),
	})
	if err != nil {
		return "", classify(ctx, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &event.Error{Kind: event.KindMalformedReply, Err: errors.New("empty completion")}
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK failures onto the closed pipeline error set. A non-2xx
// response keeps its status and raw body for diagnostics; everything else on
// the wire is a transport failure unless the deadline ran out first.
func classify(ctx context.Context, err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &event.Error{
			Kind:   event.KindHTTPFailure,
			Status: apierr.StatusCode,
			Body:   apierr.RawJSON(),
			Err:    err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &event.Error{Kind: event.KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &event.Error{Kind: event.KindTimeout, Err: err}
	}

	return &event.Error{Kind: event.KindTransportFailure, Err: err}
}
