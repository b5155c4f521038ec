package display

import (
	"github.com/rs/zerolog"

	"petra/internal/domain"
)

// Log is a headless presenter that writes every display change to the log.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "display").Logger()}
}

func (l *Log) ShowIdleFace()      { l.face(domain.FaceIdle) }
func (l *Log) ShowListeningFace() { l.face(domain.FaceListening) }
func (l *Log) ShowSpeakingFace()  { l.face(domain.FaceSpeaking) }

func (l *Log) SetCaption(text string) {
	l.log.Info().Str("caption", text).Msg("caption")
}

func (l *Log) ClearCaptionArea() {
	l.log.Debug().Msg("caption cleared")
}

// Set reports the recording indicator.
func (l *Log) Set(level domain.Level) {
	l.log.Info().Stringer("indicator", level).Msg("indicator")
}

func (l *Log) face(face domain.Face) {
	l.log.Info().Str("face", string(face)).Msg("face")
}
