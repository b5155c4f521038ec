package usecase

import (
	"petra/internal/audio"
	"petra/internal/domain"
)

// pumpChunk pulls one chunk from the microphone and sends it upstream as
// s16le and returns the number of samples read. Failures drop the chunk;
// the next tick tries again.
func (r *RecordingController) pumpChunk() int {
	n, err := r.capture.ReadChunk(r.samples)
	if err != nil {
		// Log only the first failure of a run so a dead source does not
		// flood the log at tick rate.
		if !r.captureFailed {
			r.log.Warn().Err(err).Str("code", string(domain.ErrorCodeCapture)).Msg("capture failed")
			r.captureFailed = true
		}
		return 0
	}
	r.captureFailed = false
	if n == 0 {
		return 0
	}

	r.payload = audio.EncodeS16LE(r.payload[:0], r.samples[:n])
	err = r.uplink.SendChunk(r.payload)
	r.telemetry.ChunkSent(err == nil)
	if err != nil {
		r.log.Warn().Err(err).Str("code", string(domain.ErrorCodeSend)).
			Int("samples", n).Msg("dropped outbound chunk")
	}
	return n
}
