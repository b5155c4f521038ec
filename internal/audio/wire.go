package audio

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// WireFormat describes how inbound audio bytes map to samples.
type WireFormat string

const (
	// WireU8 carries one unsigned byte per sample, centered on 128.
	WireU8 WireFormat = "u8"
	// WireS16LE carries little-endian signed 16-bit samples.
	WireS16LE WireFormat = "s16le"
)

// ParseWireFormat validates a configured wire format name.
func ParseWireFormat(name string) (WireFormat, error) {
	switch WireFormat(strings.ToLower(strings.TrimSpace(name))) {
	case WireU8:
		return WireU8, nil
	case WireS16LE:
		return WireS16LE, nil
	default:
		return "", fmt.Errorf("audio: unsupported wire format %q", name)
	}
}

// BytesPerSample returns the width of one sample on the wire.
func (f WireFormat) BytesPerSample() int {
	if f == WireS16LE {
		return 2
	}
	return 1
}

// SampleCount returns how many whole samples a payload carries. A trailing
// partial sample is ignored.
func (f WireFormat) SampleCount(payloadLen int) int {
	return payloadLen / f.BytesPerSample()
}

// Decode appends the samples carried by payload to dst.
func (f WireFormat) Decode(dst []int16, payload []byte) []int16 {
	switch f {
	case WireS16LE:
		for i := 0; i+1 < len(payload); i += 2 {
			dst = append(dst, int16(binary.LittleEndian.Uint16(payload[i:])))
		}
	default:
		for _, b := range payload {
			dst = append(dst, (int16(b)-128)<<8)
		}
	}
	return dst
}

// EncodeS16LE appends samples to dst as little-endian 16-bit PCM.
func EncodeS16LE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
