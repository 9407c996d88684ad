// Package models defines the role-tagged chat messages exchanged with model
// deployments and their chat-completions wire encoding.
package models

import (
	"encoding/json"
	"fmt"
)

// Role tags a single turn in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType identifies the kind of a content part.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
)

// ImageURL references an image either by remote URL or as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multi-part message body.
type ContentPart struct {
	Type     PartType  `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart builds an image content part from a URL or data URL.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartImage, ImageURL: &ImageURL{URL: url}}
}

// Message is one role-tagged turn. Content is either plain Text or an
// ordered list of Parts; Parts wins when both are set.
type Message struct {
	Role  Role
	Text  string
	Parts []ContentPart
}

// NewTextMessage returns a plain-text turn.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Text: text}
}

// NewPartsMessage returns a multi-part turn.
func NewPartsMessage(role Role, parts ...ContentPart) Message {
	return Message{Role: role, Parts: parts}
}

// HasImage reports whether any part references an image.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// PlainText returns the text of the turn, joining text parts with newlines.
func (m Message) PlainText() string {
	if len(m.Parts) == 0 {
		return m.Text
	}
	var s string
	for _, p := range m.Parts {
		if p.Type != PartText {
			continue
		}
		if s != "" {
			s += "\n"
		}
		s += p.Text
	}
	return s
}

type wireMessage struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON emits the chat-completions wire shape: content is a string
// for plain turns and an array of typed parts otherwise.
func (m Message) MarshalJSON() ([]byte, error) {
	var (
		content []byte
		err     error
	)
	if len(m.Parts) > 0 {
		content, err = json.Marshal(m.Parts)
	} else {
		content, err = json.Marshal(m.Text)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: content})
}

// UnmarshalJSON accepts both string and array content.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Role = w.Role
	m.Text = ""
	m.Parts = nil
	if len(w.Content) == 0 || string(w.Content) == "null" {
		return nil
	}
	switch w.Content[0] {
	case '"':
		return json.Unmarshal(w.Content, &m.Text)
	case '[':
		return json.Unmarshal(w.Content, &m.Parts)
	default:
		return fmt.Errorf("unsupported message content: %s", string(w.Content))
	}
}
