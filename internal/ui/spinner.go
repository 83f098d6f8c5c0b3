package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// TerminalSpinner renders a scoped progress indicator to a terminal writer.
//
// Begin starts the animation and returns the release func; the indicator line
// is cleared when released. Safe for sequential scopes; nested scopes share
// the writer and should be avoided.
type TerminalSpinner struct {
	w      io.Writer
	frames spinner.Spinner
}

// NewTerminalSpinner creates a spinner writing to w using the dot frame set.
func NewTerminalSpinner(w io.Writer) *TerminalSpinner {
	return &TerminalSpinner{w: w, frames: spinner.Dot}
}

// Begin starts rendering "title" with an animated frame until the returned
// func is called. The release func is idempotent.
func (s *TerminalSpinner) Begin(title string) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.frames.FPS)
		defer ticker.Stop()

		frame := 0
		for {
			select {
			case <-stop:
				fmt.Fprintf(s.w, "\r\033[K")
				return
			case <-ticker.C:
				glyph := styles.ok.Render(s.frames.Frames[frame%len(s.frames.Frames)])
				fmt.Fprintf(s.w, "\r%s %s", glyph, title)
				frame++
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}
