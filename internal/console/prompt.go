package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrAborted is returned when the user leaves a prompt with Ctrl-C or Esc.
var ErrAborted = errors.New("aborted")

// Prompter asks one question and returns the raw answer. It returns io.EOF
// when input is exhausted.
type Prompter interface {
	Ask(title, description string) (string, error)
}

// NewPrompter returns an interactive huh prompter when in is a terminal and a
// line reader otherwise.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	if IsTerminal(in) {
		return &formPrompter{in: in, out: out}
	}
	return NewLinePrompter(in, out)
}

// IsTerminal reports whether v is a terminal file.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type formPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *formPrompter) Ask(title, description string) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				Prompt("> ").
				Value(&value),
		),
	).
		WithInput(p.in).
		WithOutput(p.out).
		WithShowHelp(false)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

// LinePrompter reads one line per question. It is used for piped input,
// where every question must share one read-ahead buffer.
type LinePrompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a LinePrompter.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Ask(title, description string) (string, error) {
	fmt.Fprintln(p.out, title) //nolint:errcheck
	if description != "" {
		fmt.Fprintln(p.out, description) //nolint:errcheck
	}
	fmt.Fprint(p.out, "> ") //nolint:errcheck

	line, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
