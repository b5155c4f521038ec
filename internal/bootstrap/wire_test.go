package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"petra/internal/config"
	"petra/internal/domain"
)

type noopDisplay struct{}

func (noopDisplay) ShowIdleFace()      {}
func (noopDisplay) ShowListeningFace() {}
func (noopDisplay) ShowSpeakingFace()  {}
func (noopDisplay) SetCaption(string)  {}
func (noopDisplay) ClearCaptionArea()  {}
func (noopDisplay) Set(domain.Level)   {}

type silentCapture struct{}

func (silentCapture) ReadChunk([]int16) (int, error) { return 0, nil }

type countingSink struct{ n int }

func (s *countingSink) WriteSample(int16) error {
	s.n++
	return nil
}

type noPace struct{}

func (noPace) Pace() {}

type idleControl struct{}

func (idleControl) Level() domain.Level { return domain.LevelHigh }

func refuseDial(context.Context, string) (*websocket.Conn, error) {
	return nil, errors.New("refused")
}

func testOptions(cfg config.Config, sink *countingSink) Options {
	return Options{
		Config:    cfg,
		Capture:   silentCapture{},
		Sink:      sink,
		Display:   noopDisplay{},
		Control:   idleControl{},
		Indicator: noopDisplay{},
		Logger:    zerolog.Nop(),
		Pacer:     noPace{},
		Dial:      refuseDial,
	}
}

func TestBuildSuccess(t *testing.T) {
	t.Parallel()

	sink := &countingSink{}
	services, err := Build(testOptions(config.Default(), sink))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Device == nil || services.Stream == nil {
		t.Fatal("expected device and stream")
	}
	if services.Buffer.Capacity() != 32000 {
		t.Fatalf("unexpected buffer capacity %d", services.Buffer.Capacity())
	}

	if err := services.Device.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if sink.n == 0 {
		t.Fatal("expected built-in greeting to play")
	}
	if status := services.Device.Status(); status.Connection != domain.ConnectionDisconnected {
		t.Fatalf("expected disconnected after refused dial, got %s", status.Connection)
	}
}

func TestBuildFailsOnInvalidRules(t *testing.T) {
	t.Parallel()

	rules := filepath.Join(t.TempDir(), "bad.rules")
	if err := os.WriteFile(rules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg := config.Default()
	cfg.Caption.RulesPath = rules
	if _, err := Build(testOptions(cfg, &countingSink{})); err == nil {
		t.Fatal("expected build error due to invalid rules")
	}
}

func TestBuildFailsOnMissingGreeting(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Audio.GreetingPath = filepath.Join(t.TempDir(), "missing.wav")
	if _, err := Build(testOptions(cfg, &countingSink{})); err == nil {
		t.Fatal("expected build error due to missing greeting clip")
	}
}

func TestBuildFailsOnUnknownWireFormat(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Audio.WireFormat = "mulaw"
	if _, err := Build(testOptions(cfg, &countingSink{})); err == nil {
		t.Fatal("expected build error due to wire format")
	}
}
