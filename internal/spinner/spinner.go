// Package spinner shows progress while waiting on a model.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	interval = 80 * time.Millisecond
	// elapsed time is shown once a wait passes this long
	showElapsedAfter = 2 * time.Second
)

// Start animates message on w until the returned stop is called. Waits longer
// than a couple of seconds get an elapsed-seconds suffix. stop clears the line
// and is safe to call more than once.
func Start(w io.Writer, message string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(cleared)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		began := time.Now()
		widest := 0
		for i := 0; ; i++ {
			frame := render(frames[i%len(frames)], message, time.Since(began))
			widest = max(widest, runewidth.StringWidth(frame))
			fmt.Fprintf(w, "\r%s", frame) //nolint:errcheck

			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", widest)) //nolint:errcheck
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
		<-cleared
	}
}

func render(frame, message string, elapsed time.Duration) string {
	if elapsed < showElapsedAfter {
		return frame + " " + message
	}
	return fmt.Sprintf("%s %s %ds", frame, message, int(elapsed.Seconds()))
}

// Line prints message once and returns a no-op stop. It stands in for Start
// when w is not a terminal.
func Line(w io.Writer, message string) (stop func()) {
	fmt.Fprintln(w, message) //nolint:errcheck
	return func() {}
}
