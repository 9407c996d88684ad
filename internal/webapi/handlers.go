// Package webapi implements the JSON endpoints behind the browser demos.
package webapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/levelup-project/levelup/internal/chat"
	"github.com/levelup-project/levelup/internal/imagegen"
	"github.com/levelup-project/levelup/internal/imaging"
	"github.com/levelup-project/levelup/internal/metrics"
	"github.com/levelup-project/levelup/internal/tools"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// EmptyVisionMessage is returned when neither a question nor an image was
// given.
const EmptyVisionMessage = "Please provide a question and/or upload an image."

// MaxUploadBytes bounds request bodies, including image uploads.
const MaxUploadBytes = 20 << 20

var imageNamePattern = regexp.MustCompile(`^image_\d{8}_\d{6}_\d{6}\.png$`)

// Deps are the demo backends. A nil field disables its routes.
type Deps struct {
	// Sessions backs the chat endpoints.
	Sessions *SessionStore

	// Vision answers one stateless question at a time.
	Vision       chat.Completer
	VisionSystem string

	Images *imagegen.Generator
	Tools  *tools.Registry

	Metrics *metrics.Recorder
}

// Demos lists the enabled demos.
func (d Deps) Demos() []string {
	var out []string
	if d.Sessions != nil {
		out = append(out, metrics.DemoChat)
	}
	if d.Vision != nil {
		out = append(out, metrics.DemoVision)
	}
	if d.Images != nil {
		out = append(out, metrics.DemoImages)
	}
	if d.Tools != nil {
		out = append(out, "tools")
	}
	return out
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	deps Deps
}

// NewHandlers creates a new Handlers with the given backends.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Demos:   h.deps.Demos(),
	})
}

// HandleChatSend performs one exchange in the caller's session.
func (h *Handlers) HandleChatSend(w http.ResponseWriter, r *http.Request) {
	var req ChatSendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, release := h.deps.Sessions.Acquire(w, r)
	defer release()

	ex, err := sess.Send(r.Context(), req.System, chat.Input{Text: req.Message})
	if errors.Is(err, chat.ErrEmptyInput) {
		h.deps.Metrics.Rejected(metrics.DemoChat)
		writeError(w, http.StatusBadRequest, chat.EmptyMessagePrompt)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.deps.Metrics.ObserveExchange(metrics.DemoChat, ex.Failed, ex.Duration)

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:   ex.Reply,
		Failed:  ex.Failed,
		System:  sess.System(),
		History: Turns(sess.History()),
	})
}

// HandleChatReset clears the caller's session back to a single system turn.
func (h *Handlers) HandleChatReset(w http.ResponseWriter, r *http.Request) {
	var req ChatResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, release := h.deps.Sessions.Acquire(w, r)
	defer release()

	sess.Reset(req.System)
	writeJSON(w, http.StatusOK, ChatResponse{
		System:  sess.System(),
		History: []Turn{},
	})
}

// HandleChatTranscript returns the caller's transcript and visible history.
func (h *Handlers) HandleChatTranscript(w http.ResponseWriter, r *http.Request) {
	sess, release := h.deps.Sessions.Acquire(w, r)
	defer release()

	writeJSON(w, http.StatusOK, TranscriptResponse{
		System:   sess.System(),
		Messages: sess.Messages(),
		History:  Turns(sess.History()),
	})
}

// HandleVisionAsk answers a question about an optional image. The request is
// multipart: question, system, and either an image file or an image_url.
func (h *Handlers) HandleVisionAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	in := chat.Input{Text: strings.TrimSpace(r.FormValue("question"))}
	img, status, err := h.visionImage(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	in.Image = img

	if in.IsEmpty() {
		h.deps.Metrics.Rejected(metrics.DemoVision)
		writeError(w, http.StatusBadRequest, EmptyVisionMessage)
		return
	}

	system := strings.TrimSpace(r.FormValue("system"))
	if system == "" {
		system = h.deps.VisionSystem
	}

	start := time.Now()
	answer, err := chat.Ask(r.Context(), h.deps.Vision, system, in)
	h.deps.Metrics.ObserveExchange(metrics.DemoVision, err != nil, time.Since(start))

	resp := VisionResponse{Answer: answer}
	if err != nil {
		slog.Warn("vision call failed", "error", err)
		resp.Answer = chat.RenderError(err)
		resp.Failed = true
	}
	resp.HTML = RenderMarkdown(resp.Answer)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) visionImage(r *http.Request) (string, int, error) {
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return "", http.StatusBadRequest, err
			}
			defer f.Close() //nolint:errcheck
			data, err := io.ReadAll(f)
			if err != nil {
				return "", http.StatusBadRequest, err
			}
			if len(data) > 0 {
				url, err := imaging.FromBytes(data)
				if err != nil {
					return "", http.StatusUnsupportedMediaType, err
				}
				return url, 0, nil
			}
		}
	}

	if u := strings.TrimSpace(r.FormValue("image_url")); u != "" {
		if !imaging.IsRemote(u) {
			return "", http.StatusBadRequest, errors.New("image_url must be an http(s) URL")
		}
		return imaging.PassThrough(u), 0, nil
	}
	return "", 0, nil
}

// HandleImageGenerate generates and saves one image.
func (h *Handlers) HandleImageGenerate(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	res, err := h.deps.Images.Generate(r.Context(), req.Prompt)
	if errors.Is(err, imagegen.ErrEmptyPrompt) {
		h.deps.Metrics.Rejected(metrics.DemoImages)
		writeError(w, http.StatusBadRequest, imagegen.EmptyPromptMessage)
		return
	}
	h.deps.Metrics.ObserveExchange(metrics.DemoImages, err != nil, time.Since(start))

	resp := ImageResponse{Status: imagegen.Status(res, err)}
	if err != nil {
		slog.Warn("image generation failed", "error", err)
		resp.Failed = true
		writeJSON(w, http.StatusOK, resp)
		return
	}
	h.deps.Metrics.ImageSaved()
	resp.Name = res.Name
	resp.URL = "/images/" + res.Name
	resp.Width = res.Width
	resp.Height = res.Height
	resp.RevisedPrompt = res.RevisedPrompt
	resp.PublishedURL = res.PublishedURL
	writeJSON(w, http.StatusOK, resp)
}

// HandleImageFile serves a previously saved image. Only names produced by
// the generator are accepted.
func (h *Handlers) HandleImageFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !imageNamePattern.MatchString(name) {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	path := filepath.Join(h.deps.Images.Dir(), name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	http.ServeFile(w, r, path)
}

// HandleTools lists the callable tools.
func (h *Handlers) HandleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ToolsResponse{Tools: h.deps.Tools.Definitions()})
}

// HandleToolCall invokes a tool with the request body as its JSON arguments.
func (h *Handlers) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	args, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.deps.Tools.Call(name, args)
	var argErr *tools.ArgumentError
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.As(err, &argErr):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("tool call failed", "tool", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if name == tools.SubmitSupportTicketName {
		h.deps.Metrics.TicketWritten()
	}
	writeJSON(w, http.StatusOK, ToolCallResponse{Name: name, Output: out})
}

// RegisterRoutes registers the web API routes for every enabled demo.
func RegisterRoutes(mux *http.ServeMux, deps Deps) {
	h := NewHandlers(deps)
	mux.HandleFunc("GET /api/health", h.HandleHealth)

	if deps.Sessions != nil {
		mux.HandleFunc("POST /api/chat/send", h.HandleChatSend)
		mux.HandleFunc("POST /api/chat/reset", h.HandleChatReset)
		mux.HandleFunc("GET /api/chat/transcript", h.HandleChatTranscript)
	}
	if deps.Vision != nil {
		mux.HandleFunc("POST /api/vision/ask", h.HandleVisionAsk)
	}
	if deps.Images != nil {
		mux.HandleFunc("POST /api/images/generate", h.HandleImageGenerate)
		mux.HandleFunc("GET /images/{name}", h.HandleImageFile)
	}
	if deps.Tools != nil {
		mux.HandleFunc("GET /api/tools", h.HandleTools)
		mux.HandleFunc("POST /api/tools/{name}", h.HandleToolCall)
	}
}

// Turns converts session history to its display form.
func Turns(history []chat.Exchange) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, ex := range history {
		turns = append(turns, Turn{
			User:     ex.User,
			HasImage: ex.HasImage,
			Reply:    ex.Reply,
			HTML:     RenderMarkdown(ex.Reply),
			Failed:   ex.Failed,
		})
	}
	return turns
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
