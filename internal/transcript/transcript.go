// Package transcript holds the ordered conversation context that is sent to
// the model on every call.
package transcript

import (
	"github.com/levelup-project/levelup/internal/models"
)

// DefaultSystemMessage seeds a transcript when the caller supplies none.
const DefaultSystemMessage = "You are a helpful AI assistant that answers questions clearly and concisely."

// Transcript is an append-only sequence of turns. The first turn, when
// present, is the only system turn.
type Transcript struct {
	turns []models.Message
}

// New returns a transcript seeded with a single system turn.
func New(system string) *Transcript {
	t := &Transcript{}
	t.Reset(system)
	return t
}

// Reset replaces the whole transcript with a fresh system turn. An empty
// system message falls back to DefaultSystemMessage.
func (t *Transcript) Reset(system string) {
	if system == "" {
		system = DefaultSystemMessage
	}
	t.turns = []models.Message{models.NewTextMessage(models.RoleSystem, system)}
}

// SetSystem rewrites the leading system turn in place, inserting one if the
// transcript has none.
func (t *Transcript) SetSystem(system string) {
	if system == "" {
		system = DefaultSystemMessage
	}
	if len(t.turns) > 0 && t.turns[0].Role == models.RoleSystem {
		t.turns[0] = models.NewTextMessage(models.RoleSystem, system)
		return
	}
	t.turns = append([]models.Message{models.NewTextMessage(models.RoleSystem, system)}, t.turns...)
}

// Append adds a user or assistant turn at the end. System turns are routed
// through SetSystem so the transcript never holds more than one.
func (t *Transcript) Append(m models.Message) {
	if m.Role == models.RoleSystem {
		t.SetSystem(m.PlainText())
		return
	}
	t.turns = append(t.turns, m)
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Last returns the most recent turn and false if the transcript is empty.
func (t *Transcript) Last() (models.Message, bool) {
	if len(t.turns) == 0 {
		return models.Message{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// System returns the content of the system turn, or "" if there is none.
func (t *Transcript) System() string {
	if len(t.turns) > 0 && t.turns[0].Role == models.RoleSystem {
		return t.turns[0].PlainText()
	}
	return ""
}

// Messages returns a copy of the turns, safe to hand to a request encoder.
func (t *Transcript) Messages() []models.Message {
	out := make([]models.Message, len(t.turns))
	copy(out, t.turns)
	return out
}
