// Package console runs the terminal vision demo: pick an image once, then
// ask questions about it until the user quits.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/levelup-project/levelup/internal/chat"
	"github.com/levelup-project/levelup/internal/imaging"
	"github.com/levelup-project/levelup/internal/spinner"
)

// Prompts shown by the vision loop.
const (
	ImagePrompt      = "Enter the path to a local image file or paste an image URL"
	QuestionPrompt   = "Ask a question about the image (or type 'quit' to exit)"
	EmptyQuestion    = "Please enter a question."
	QuitCommand      = "quit"
	fetchingAnswer   = "Fetching answer..."
	defaultImageHint = "Leave blank to use the default orange image."
)

// ErrNoImage is returned when no image was given and there is no default.
var ErrNoImage = errors.New("no image given")

// VisionConfig configures a VisionLoop.
type VisionConfig struct {
	System string
	// DefaultImageURL is used when the image prompt is left blank. Empty
	// makes a blank answer an error.
	DefaultImageURL string
	HTTPClient      imaging.Doer
	// Width wraps answers to this many cells; 0 disables wrapping.
	Width int
	// Animate shows a spinner while waiting instead of a status line.
	Animate bool
}

// VisionLoop is the console question-and-answer session.
type VisionLoop struct {
	completer chat.Completer
	prompter  Prompter
	out       io.Writer
	cfg       VisionConfig
}

// NewVisionLoop creates a loop that reads through prompter and writes to out.
func NewVisionLoop(completer chat.Completer, prompter Prompter, out io.Writer, cfg VisionConfig) *VisionLoop {
	return &VisionLoop{completer: completer, prompter: prompter, out: out, cfg: cfg}
}

// Run loads the image and then answers questions until quit, end of input or
// ctx cancellation. Failed answers are printed and the loop continues.
func (v *VisionLoop) Run(ctx context.Context) error {
	image, err := v.loadImage(ctx)
	if err != nil {
		return err
	}

	for {
		fmt.Fprintln(v.out) //nolint:errcheck
		q, err := v.prompter.Ask(QuestionPrompt, "")
		if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		q = strings.TrimSpace(q)
		if strings.EqualFold(q, QuitCommand) {
			return nil
		}
		if q == "" {
			fmt.Fprintln(v.out, EmptyQuestion) //nolint:errcheck
			continue
		}

		answer, err := v.ask(ctx, q, image)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.Debug("vision question failed", "error", err)
			fmt.Fprintf(v.out, "[ERROR] %v\n", err) //nolint:errcheck
			continue
		}
		fmt.Fprintln(v.out, Wrap(answer, v.cfg.Width)) //nolint:errcheck
	}
}

func (v *VisionLoop) loadImage(ctx context.Context) (string, error) {
	fmt.Fprintln(v.out, "Loading an image to analyse") //nolint:errcheck

	hint := defaultImageHint
	if v.cfg.DefaultImageURL == "" {
		hint = ""
	}
	input, err := v.prompter.Ask(ImagePrompt, hint)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	input = strings.TrimSpace(input)
	if input == "" {
		if v.cfg.DefaultImageURL == "" {
			return "", ErrNoImage
		}
		input = v.cfg.DefaultImageURL
	}

	url, err := imaging.Resolve(ctx, v.cfg.HTTPClient, input)
	if err != nil {
		return "", fmt.Errorf("loading image %s: %w", input, err)
	}
	slog.Debug("image loaded", "source", input, "bytes", len(url))
	return url, nil
}

func (v *VisionLoop) ask(ctx context.Context, question, image string) (string, error) {
	start := spinner.Line
	if v.cfg.Animate {
		start = spinner.Start
	}
	stop := start(v.out, fetchingAnswer)
	defer stop()

	return chat.Ask(ctx, v.completer, v.cfg.System, chat.Input{Text: question, Image: image})
}
