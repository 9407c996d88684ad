// Package chat implements the single-turn model exchange shared by every
// demo: validate the user's contribution, append it, call the model once,
// and record either the reply or a rendered error.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/levelup-project/levelup/internal/models"
	"github.com/levelup-project/levelup/internal/transcript"
)

//go:generate go tool mockgen -source=session.go -destination=mock_completer_test.go -package=chat

// Completer sends a transcript to a hosted model and returns the first
// completion's text.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// ErrEmptyInput is returned when the user contribution has neither text nor
// an image. Nothing is recorded and no call is made.
var ErrEmptyInput = errors.New("empty input")

// EmptyMessagePrompt is shown when a chat message is blank.
const EmptyMessagePrompt = "Please enter a message."

// Input is one user contribution: text, optionally with one image given as a
// data URL or a remote URL.
type Input struct {
	Text  string
	Image string
}

// IsEmpty reports whether the contribution has no text and no image.
func (in Input) IsEmpty() bool {
	return strings.TrimSpace(in.Text) == "" && in.Image == ""
}

// Message converts the contribution to a user turn. Text-only input stays
// a plain string; an image makes it a multi-part turn.
func (in Input) Message() models.Message {
	if in.Image == "" {
		return models.NewTextMessage(models.RoleUser, in.Text)
	}
	var parts []models.ContentPart
	if strings.TrimSpace(in.Text) != "" {
		parts = append(parts, models.TextPart(in.Text))
	}
	parts = append(parts, models.ImagePart(in.Image))
	return models.NewPartsMessage(models.RoleUser, parts...)
}

// Exchange is one entry of the visible history: what the user sent and what
// came back, which is either the reply or a rendered error.
type Exchange struct {
	User     string
	HasImage bool
	Reply    string
	Failed   bool
	Duration time.Duration
}

// RenderError formats a remote failure for display in place of a reply.
func RenderError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// Options configure a Session.
type Options struct {
	// System seeds the transcript; empty uses transcript.DefaultSystemMessage.
	System string
	// SyncSystem rewrites the system turn with the caller's current system
	// message on every Send instead of only on Reset.
	SyncSystem bool
}

// Session owns one conversation. It is not safe for concurrent use; callers
// serialise access per UI session.
type Session struct {
	completer  Completer
	transcript *transcript.Transcript
	history    []Exchange
	syncSystem bool
}

// NewSession creates a session bound to completer.
func NewSession(completer Completer, opts Options) *Session {
	return &Session{
		completer:  completer,
		transcript: transcript.New(opts.System),
		syncSystem: opts.SyncSystem,
	}
}

// Send performs one exchange. The user turn is appended before the call and
// kept whatever the outcome; on success the assistant turn follows it. A
// remote failure is not returned as an error: it is rendered into the
// returned Exchange with Failed set.
func (s *Session) Send(ctx context.Context, system string, in Input) (Exchange, error) {
	if in.IsEmpty() {
		return Exchange{}, ErrEmptyInput
	}

	if s.syncSystem {
		s.transcript.SetSystem(system)
	}
	user := in.Message()
	s.transcript.Append(user)

	start := time.Now()
	reply, err := s.completer.Complete(ctx, s.transcript.Messages())
	ex := Exchange{
		User:     in.Text,
		HasImage: user.HasImage(),
		Duration: time.Since(start),
	}
	if err != nil {
		slog.Warn("model call failed", "error", err, "turns", s.transcript.Len())
		ex.Reply = RenderError(err)
		ex.Failed = true
	} else {
		s.transcript.Append(models.NewTextMessage(models.RoleAssistant, reply))
		ex.Reply = reply
	}
	s.history = append(s.history, ex)
	return ex, nil
}

// Reset starts over with a single system turn and an empty history.
func (s *Session) Reset(system string) {
	s.transcript.Reset(system)
	s.history = nil
}

// History returns a copy of the visible exchanges.
func (s *Session) History() []Exchange {
	out := make([]Exchange, len(s.history))
	copy(out, s.history)
	return out
}

// Messages returns a copy of the transcript sent to the model.
func (s *Session) Messages() []models.Message {
	return s.transcript.Messages()
}

// System returns the current system message.
func (s *Session) System() string {
	return s.transcript.System()
}

// Ask sends a fresh [system, user] pair with no history, as the vision demos
// do for every question.
func Ask(ctx context.Context, completer Completer, system string, in Input) (string, error) {
	if in.IsEmpty() {
		return "", ErrEmptyInput
	}
	if system == "" {
		system = transcript.DefaultSystemMessage
	}
	return completer.Complete(ctx, []models.Message{
		models.NewTextMessage(models.RoleSystem, system),
		in.Message(),
	})
}
