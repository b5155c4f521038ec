package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrQuit is returned by Keyboard.Run when the user asks to exit.
var ErrQuit = errors.New("quit requested")

const ctrlC = 0x03

// Keyboard maps key presses on a terminal to the push-to-talk button:
// space or enter presses it, q or Ctrl-C quits.
type Keyboard struct {
	Button
	in io.Reader
}

func NewKeyboard(in io.Reader) *Keyboard {
	return &Keyboard{in: in}
}

// Run reads keys until ctx is cancelled, the user quits or input ends.
// A terminal input is switched to raw mode for the duration.
func (k *Keyboard) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if f, ok := k.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
	}

	keys := make(chan byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := k.in.Read(buf); err != nil {
				readErr <- err
				return
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read keyboard: %w", err)
		case key := <-keys:
			switch key {
			case ' ', '\r', '\n':
				k.Press()
			case 'q', 'Q', ctrlC:
				return ErrQuit
			}
		}
	}
}
