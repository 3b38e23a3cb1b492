package spinner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	s := New(context.Background(), &buf, "Starting", 8)

	if s.Message() != "Starting" {
		t.Errorf("Message() = %q, want %q", s.Message(), "Starting")
	}
	if s.tty {
		t.Error("a bytes.Buffer is not a terminal")
	}
	if s.IsActive() {
		t.Error("spinner should not be active before Start()")
	}
}

func TestLineModeStages(t *testing.T) {
	var buf bytes.Buffer
	s := New(context.Background(), &buf, "Starting", 3)

	s.Start()
	s.Stage("Segmenting text")
	s.Stage("Clustering")
	s.Stop()

	want := "Starting\n[1/3] Segmenting text\n[2/3] Clustering\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestStageWithoutTotal(t *testing.T) {
	var buf bytes.Buffer
	s := New(context.Background(), &buf, "", 0)
	s.Stage("Clustering")
	if s.Message() != "Clustering" {
		t.Errorf("Message() = %q", s.Message())
	}
	if buf.Len() != 0 {
		t.Errorf("inactive spinner should not write, got %q", buf.String())
	}
}

func TestAnimatedOutput(t *testing.T) {
	var buf bytes.Buffer
	s := New(context.Background(), &buf, "Processing", 0)
	s.tty = true
	s.delay = 10 * time.Millisecond

	s.Start()
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	output := buf.String()
	if !strings.Contains(output, "Processing") {
		t.Errorf("expected the message in output, got %q", output)
	}
	hasFrame := false
	for _, f := range s.frames {
		if strings.Contains(output, f) {
			hasFrame = true
			break
		}
	}
	if !hasFrame {
		t.Error("expected spinner frames in output")
	}
	if !strings.HasSuffix(output, "\r\033[2K") {
		t.Errorf("expected the line to be cleared on Stop, got %q", output)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := New(context.Background(), &buf, "Testing", 0)

	s.Stop()
	if s.IsActive() {
		t.Error("Stop() without Start() should leave the spinner inactive")
	}

	s.Start()
	s.Start()
	if !s.IsActive() {
		t.Error("spinner should be active after Start()")
	}
	if got := strings.Count(buf.String(), "Testing"); got != 1 {
		t.Errorf("second Start() should be a no-op, message written %d times", got)
	}

	s.Stop()
	s.Stop()
	if s.IsActive() {
		t.Error("spinner should be inactive after Stop()")
	}
}

func TestUpdateMessage(t *testing.T) {
	s := New(context.Background(), &bytes.Buffer{}, "Initial", 2)
	s.UpdateMessage("Updated")
	if s.Message() != "Updated" {
		t.Errorf("Message() = %q, want %q", s.Message(), "Updated")
	}
	s.Stage("Next")
	if s.Message() != "[1/2] Next" {
		t.Errorf("Message() = %q", s.Message())
	}
}

func TestContextCancelStopsAnimation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := New(ctx, &buf, "Working", 0)
	s.tty = true
	s.delay = 5 * time.Millisecond

	s.Start()
	cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("animation goroutine did not exit after cancel")
	}
	s.Stop()
}
