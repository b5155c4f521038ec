package hardware

import (
	"errors"
	"reflect"
	"testing"
)

func TestDevicesCloseReleasesInReverseOrder(t *testing.T) {
	t.Parallel()

	var order []string
	closer := func(name string, err error) func() error {
		return func() error {
			order = append(order, name)
			return err
		}
	}

	errSpeaker := errors.New("speaker busy")
	d := &Devices{closers: []func() error{
		closer("portaudio", nil),
		closer("speaker", errSpeaker),
		closer("microphone", nil),
	}}

	err := d.Close()
	if !errors.Is(err, errSpeaker) {
		t.Fatalf("expected speaker error, got %v", err)
	}
	if want := []string{"microphone", "speaker", "portaudio"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("close order = %v, want %v", order, want)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("closers ran twice: %v", order)
	}
}
