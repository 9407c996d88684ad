// Package ticket writes support ticket records to text files.
package ticket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the number of hex characters kept from the random UUID.
const IDLength = 6

// createAttempts bounds how many fresh ids Submit tries when one is taken.
const createAttempts = 5

// Ticket is a single support request. It is written once and never updated.
type Ticket struct {
	ID          string
	Email       string
	Description string
}

// FileName returns the file the ticket is stored in.
func (t Ticket) FileName() string {
	return "ticket-" + t.ID + ".txt"
}

// Text renders the ticket file contents.
func (t Ticket) Text() string {
	return fmt.Sprintf("Support ticket: %s\nSubmitted by: %s\nDescription:\n%s", t.ID, t.Email, t.Description)
}

// Confirmation is the JSON payload returned to the caller.
type Confirmation struct {
	Message string `json:"message"`
}

// NewID returns a short random identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}

// Writer stores tickets in a directory.
type Writer struct {
	dir   string
	newID func() string
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, newID: NewID}
}

// Dir returns the directory tickets are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// Submit writes a new ticket file and returns the ticket with a JSON
// confirmation message.
func (w *Writer) Submit(email, description string) (*Ticket, string, error) {
	if strings.TrimSpace(email) == "" {
		return nil, "", errors.New("email address is required")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating tickets dir: %w", err)
	}
	t, f, err := w.create(email, description)
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(w.dir, t.FileName())
	if _, err := f.WriteString(t.Text()); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(path) //nolint:errcheck
		return nil, "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, "", fmt.Errorf("closing %s: %w", path, err)
	}

	msg, err := json.Marshal(Confirmation{
		Message: fmt.Sprintf("Support ticket %s submitted. The ticket file has been saved as %s.", t.ID, t.FileName()),
	})
	if err != nil {
		return nil, "", err
	}
	return t, string(msg), nil
}

// create opens a new ticket file, drawing a fresh id when one is taken.
func (w *Writer) create(email, description string) (*Ticket, *os.File, error) {
	var err error
	for range createAttempts {
		t := &Ticket{ID: w.newID(), Email: email, Description: description}
		path := filepath.Join(w.dir, t.FileName())

		var f *os.File
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return t, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, nil, fmt.Errorf("creating %s: %w", path, err)
		}
		slog.Debug("ticket id taken", "id", t.ID)
	}
	return nil, nil, fmt.Errorf("no free ticket id after %d attempts: %w", createAttempts, err)
}
