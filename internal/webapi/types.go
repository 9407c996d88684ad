package webapi

import (
	"html/template"

	"github.com/levelup-project/levelup/internal/models"
	"github.com/levelup-project/levelup/internal/tools"
)

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Demos   []string `json:"demos"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Turn is one visible exchange in the chat history.
type Turn struct {
	User     string        `json:"user"`
	HasImage bool          `json:"hasImage"`
	Reply    string        `json:"reply"`
	HTML     template.HTML `json:"html"`
	Failed   bool          `json:"failed"`
}

// ChatSendRequest carries the message box and the current system box.
type ChatSendRequest struct {
	Message string `json:"message"`
	System  string `json:"system"`
}

// ChatResetRequest carries the system box at the time Clear was pressed.
type ChatResetRequest struct {
	System string `json:"system"`
}

// ChatResponse is returned by send and reset.
type ChatResponse struct {
	Reply   string `json:"reply,omitempty"`
	Failed  bool   `json:"failed"`
	System  string `json:"system"`
	History []Turn `json:"history"`
}

// TranscriptResponse exposes the transcript exactly as sent to the model.
type TranscriptResponse struct {
	System   string           `json:"system"`
	Messages []models.Message `json:"messages"`
	History  []Turn           `json:"history"`
}

// VisionResponse is the answer to one vision question.
type VisionResponse struct {
	Answer string        `json:"answer"`
	HTML   template.HTML `json:"html"`
	Failed bool          `json:"failed"`
}

// ImageRequest carries the generation prompt.
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResponse describes a generated image or the failure status.
type ImageResponse struct {
	Status        string `json:"status"`
	Failed        bool   `json:"failed"`
	Name          string `json:"name,omitempty"`
	URL           string `json:"url,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
	PublishedURL  string `json:"publishedUrl,omitempty"`
}

// ToolsResponse lists the callable tools.
type ToolsResponse struct {
	Tools []tools.Definition `json:"tools"`
}

// ToolCallResponse is the raw output of a tool call.
type ToolCallResponse struct {
	Name   string `json:"name"`
	Output string `json:"output"`
}
