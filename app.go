package main

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"petra/internal/bootstrap"
	"petra/internal/config"
	"petra/internal/control"
	"petra/internal/domain"
	"petra/internal/hardware"
	"petra/internal/observe"
	"petra/internal/usecase"
)

// loopStopTimeout bounds how long shutdown waits for the device loop to
// leave the audio hardware.
const loopStopTimeout = 2 * time.Second

const (
	eventFace      = "petra:face"
	eventCaption   = "petra:caption"
	eventIndicator = "petra:indicator"
	eventError     = "petra:error"
)

// Screen is what the window shows. The frontend fetches it on load and
// then follows events.
type Screen struct {
	Face      domain.Face `json:"face"`
	Caption   string      `json:"caption"`
	Recording bool        `json:"recording"`
}

// StatusView is the device status plus any startup failure.
type StatusView struct {
	domain.Status
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// App is the Wails application root. The window is the device's status
// screen, its button is the push-to-talk control and its LED is the
// recording indicator.
type App struct {
	ctx         context.Context
	button      control.Button
	log         zerolog.Logger
	stopTimeout time.Duration

	mu      sync.Mutex
	screen  Screen
	device  *usecase.Device
	devices io.Closer
	cancel  context.CancelFunc
	done    chan struct{}
	bootErr error
}

func NewApp() *App {
	return &App{
		log:         zerolog.Nop(),
		stopTimeout: loopStopTimeout,
		screen:      Screen{Face: domain.FaceIdle},
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load("")
	if err != nil {
		a.fail(err)
		return
	}
	a.log = observe.NewLogger(cfg.Log, os.Stderr, uuid.NewString())

	devices, err := hardware.Open(ctx, cfg.Audio)
	if err != nil {
		a.fail(err)
		return
	}

	services, err := bootstrap.Build(bootstrap.Options{
		Config:    cfg,
		Capture:   devices.Capture,
		Sink:      devices.Sink,
		Display:   a,
		Control:   &a.button,
		Indicator: a,
		Logger:    a.log,
	})
	if err != nil {
		_ = devices.Close()
		a.fail(err)
		return
	}

	a.mu.Lock()
	a.device = services.Device
	a.mu.Unlock()

	a.launch(ctx, devices, func(ctx context.Context) {
		if err := services.Device.Start(ctx); err != nil {
			a.fail(err)
			return
		}
		_ = services.Device.Run(ctx)
	})
}

// launch runs loop on its own goroutine. devices are released by shutdown
// once the loop has returned.
func (a *App) launch(ctx context.Context, devices io.Closer, loop func(context.Context)) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.devices = devices
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	go func() {
		defer close(done)
		loop(runCtx)
	}()
}

func (a *App) shutdown(context.Context) {
	a.mu.Lock()
	cancel, done, devices := a.cancel, a.done, a.devices
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(a.stopTimeout):
			// The loop may still be inside a stream read or write.
			a.log.Warn().Dur("timeout", a.stopTimeout).
				Msg("device loop did not stop, leaving audio hardware to process exit")
			return
		}
	}
	if devices != nil {
		if err := devices.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to release audio hardware")
		}
	}
}

// PressButton is the on-screen push-to-talk button.
func (a *App) PressButton() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.button.Press()
	return nil
}

// GetScreen returns the current face, caption and LED.
func (a *App) GetScreen() Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// GetStatus returns the device status.
func (a *App) GetStatus() StatusView {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.bootErr != nil:
		return StatusView{Error: a.bootErr.Error()}
	case a.device == nil:
		return StatusView{}
	}
	return StatusView{Status: a.device.Status(), Ready: true}
}

func (a *App) requireReady() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.device == nil {
		return errors.New("device is not initialized")
	}
	return nil
}

func (a *App) ShowIdleFace()      { a.setFace(domain.FaceIdle) }
func (a *App) ShowListeningFace() { a.setFace(domain.FaceListening) }
func (a *App) ShowSpeakingFace()  { a.setFace(domain.FaceSpeaking) }

func (a *App) SetCaption(text string) {
	a.mu.Lock()
	a.screen.Caption = text
	a.mu.Unlock()
	a.emit(eventCaption, map[string]string{"text": text})
}

func (a *App) ClearCaptionArea() {
	a.SetCaption("")
}

// Set drives the on-screen recording LED.
func (a *App) Set(level domain.Level) {
	a.mu.Lock()
	a.screen.Recording = level == domain.LevelHigh
	a.mu.Unlock()
	a.emit(eventIndicator, map[string]string{"level": level.String()})
}

func (a *App) setFace(face domain.Face) {
	a.mu.Lock()
	a.screen.Face = face
	a.mu.Unlock()
	a.emit(eventFace, map[string]string{"face": string(face)})
}

func (a *App) fail(err error) {
	a.mu.Lock()
	a.bootErr = err
	a.mu.Unlock()
	a.log.Error().Err(err).Str("code", string(domain.ErrorCodeStartup)).Msg("startup failed")
	a.emit(eventError, map[string]string{
		"code":    string(domain.ErrorCodeStartup),
		"message": err.Error(),
	})
}

func (a *App) emit(event string, payload map[string]string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, payload)
}
