package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"petra/internal/domain"
	"petra/internal/ports"
)

var (
	_ ports.DisplayPresenter = (*App)(nil)
	_ ports.Indicator        = (*App)(nil)
)

func TestAppTracksScreenWithoutRuntime(t *testing.T) {
	t.Parallel()

	app := NewApp()
	app.ShowListeningFace()
	app.SetCaption(domain.CaptionListening)
	app.Set(domain.LevelHigh)

	want := Screen{Face: domain.FaceListening, Caption: domain.CaptionListening, Recording: true}
	if got := app.GetScreen(); got != want {
		t.Fatalf("screen = %+v, want %+v", got, want)
	}

	app.ClearCaptionArea()
	app.ShowSpeakingFace()
	app.Set(domain.LevelLow)
	want = Screen{Face: domain.FaceSpeaking}
	if got := app.GetScreen(); got != want {
		t.Fatalf("screen = %+v, want %+v", got, want)
	}
}

func TestPressButtonRequiresDevice(t *testing.T) {
	t.Parallel()

	app := NewApp()
	if err := app.PressButton(); err == nil {
		t.Fatal("expected error before startup")
	}
	if app.button.Level() != domain.LevelHigh {
		t.Fatal("press must not be queued before startup")
	}
	if status := app.GetStatus(); status.Ready || status.Error != "" {
		t.Fatalf("unexpected status before startup: %+v", status)
	}
}

func TestGetStatusReportsBootError(t *testing.T) {
	t.Parallel()

	app := NewApp()
	app.fail(errors.New("no audio device"))

	status := app.GetStatus()
	if status.Ready || status.Error != "no audio device" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if err := app.PressButton(); err == nil || err.Error() != "no audio device" {
		t.Fatalf("expected boot error, got %v", err)
	}
}

type recordingCloser struct {
	closed    atomic.Int32
	loopAlive func() bool
	aliveSeen atomic.Bool
}

func (c *recordingCloser) Close() error {
	if c.loopAlive() {
		c.aliveSeen.Store(true)
	}
	c.closed.Add(1)
	return nil
}

func TestShutdownReleasesHardwareAfterLoopReturns(t *testing.T) {
	t.Parallel()

	var running atomic.Bool
	running.Store(true)
	closer := &recordingCloser{loopAlive: running.Load}

	app := NewApp()
	app.launch(context.Background(), closer, func(ctx context.Context) {
		<-ctx.Done()
		// Still finishing a hardware write after the cancel.
		time.Sleep(20 * time.Millisecond)
		running.Store(false)
	})

	app.shutdown(context.Background())

	if closer.closed.Load() != 1 {
		t.Fatalf("expected hardware closed once, got %d", closer.closed.Load())
	}
	if closer.aliveSeen.Load() {
		t.Fatal("hardware closed while the device loop was still running")
	}
}

func TestShutdownLeavesHardwareWhenLoopHangs(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	closer := &recordingCloser{loopAlive: func() bool { return true }}

	app := NewApp()
	app.stopTimeout = 20 * time.Millisecond
	app.launch(context.Background(), closer, func(context.Context) {
		<-release
	})

	start := time.Now()
	app.shutdown(context.Background())

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("shutdown blocked for %v", elapsed)
	}
	if closer.closed.Load() != 0 {
		t.Fatal("hardware must not be closed under a running loop")
	}
}
