// Package imagegen generates an image from a prompt, saves it under a local
// output directory and decodes it for preview.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/levelup-project/levelup/internal/azopenai"
	"github.com/levelup-project/levelup/internal/imaging"
)

//go:generate go tool mockgen -source=generator.go -destination=mock_generator_test.go -package=imagegen

// EmptyPromptMessage is the status shown when no prompt was entered.
const EmptyPromptMessage = "Please enter a prompt."

// ErrEmptyPrompt is returned before any network call when the prompt is blank.
var ErrEmptyPrompt = errors.New("empty prompt")

// ImageGenerator requests a single image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*azopenai.GeneratedImage, error)
}

// Publisher copies a saved image somewhere else, such as blob storage.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) (string, error)
}

// Result describes one saved image.
type Result struct {
	Path          string
	Name          string
	Width         int
	Height        int
	Format        string
	RevisedPrompt string
	PublishedURL  string
	Status        string
}

// Generator ties the model call, the download and the local save together.
type Generator struct {
	images    ImageGenerator
	http      imaging.Doer
	dir       string
	publisher Publisher
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithHTTPClient sets the client used to download generated assets.
func WithHTTPClient(c imaging.Doer) Option {
	return func(g *Generator) { g.http = c }
}

// WithPublisher mirrors every saved image through p.
func WithPublisher(p Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator that saves into dir.
func New(images ImageGenerator, dir string, opts ...Option) *Generator {
	g := &Generator{
		images: images,
		dir:    dir,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the output directory.
func (g *Generator) Dir() string {
	return g.dir
}

// FileName returns the unique name for an image saved at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("image_%s_%06d.png", t.Format("20060102_150405"), t.Nanosecond()/1000)
}

// Generate runs the whole flow. Any failure leaves no file behind.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	gen, err := g.images.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating image: %w", err)
	}

	data, err := g.fetch(ctx, gen)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding generated image: %w", err)
	}
	bounds := img.Bounds()

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	name := FileName(g.now())
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.Remove(path) //nolint:errcheck
		return nil, fmt.Errorf("saving image: %w", err)
	}

	res := &Result{
		Path:          path,
		Name:          name,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		RevisedPrompt: gen.RevisedPrompt,
		Status:        "Image generated and saved: " + path,
	}
	slog.Info("image saved", "path", path, "width", bounds.Dx(), "height", bounds.Dy())

	if g.publisher != nil {
		url, err := g.publisher.Publish(ctx, name, data)
		if err != nil {
			slog.Warn("publishing image failed", "name", name, "error", err)
		} else {
			res.PublishedURL = url
		}
	}
	return res, nil
}

func (g *Generator) fetch(ctx context.Context, gen *azopenai.GeneratedImage) ([]byte, error) {
	if gen.URL != "" {
		data, err := imaging.Fetch(ctx, g.http, gen.URL)
		if err != nil {
			return nil, fmt.Errorf("downloading image: %w", err)
		}
		return data, nil
	}
	data, err := base64.StdEncoding.DecodeString(gen.B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding inline image: %w", err)
	}
	return data, nil
}

// Status renders the outcome of Generate for display.
func Status(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		return EmptyPromptMessage
	case err != nil:
		return fmt.Sprintf("Error: %v", err)
	default:
		return res.Status
	}
}
