// Package spinner shows the current pipeline stage on a terminal.
//
// On a terminal the spinner animates in place. When the writer is not a
// terminal (logs, pipes) each stage is written once on its own line instead.
package spinner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Spinner is a progress indicator for one run.
type Spinner struct {
	frames  []string
	delay   time.Duration
	writer  io.Writer
	tty     bool
	mu      sync.RWMutex
	active  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	message string
	step    int
	total   int
}

// New creates a spinner writing to writer. total is the number of stages
// expected; zero hides the step counter. Cancelling ctx stops the animation.
func New(ctx context.Context, writer io.Writer, message string, total int) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		frames:  []string{"◜", "◠", "◝", "◞", "◡", "◟"},
		delay:   100 * time.Millisecond,
		writer:  writer,
		tty:     isTerminal(writer),
		message: message,
		total:   total,
		ctx:     spinnerCtx,
		cancel:  cancel,
	}
}

// Start begins the animation. It is a no-op when already running.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	if !s.tty {
		fmt.Fprintln(s.writer, s.message)
		return
	}
	s.wg.Add(1)
	go s.run()
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	if s.tty {
		fmt.Fprint(s.writer, "\r\033[2K")
	}
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Message returns the text currently displayed.
func (s *Spinner) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

// UpdateMessage replaces the displayed text without advancing the step.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stage advances to the next stage and displays its name.
func (s *Spinner) Stage(name string) {
	s.mu.Lock()
	s.step++
	if s.total > 0 {
		s.message = fmt.Sprintf("[%d/%d] %s", s.step, s.total, name)
	} else {
		s.message = name
	}
	msg, active := s.message, s.active
	s.mu.Unlock()

	if active && !s.tty {
		fmt.Fprintln(s.writer, msg)
	}
}

func (s *Spinner) run() {
	defer s.wg.Done()

	frame := 0
	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			f := s.frames[frame%len(s.frames)]
			msg := s.message
			s.mu.RUnlock()

			fmt.Fprintf(s.writer, "\r\033[2K%s %s", f, msg)
			frame++
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
