package domain

// Level is the sampled state of a digital line.
type Level uint8

const (
	LevelLow Level = iota
	LevelHigh
)

func (l Level) String() string {
	if l == LevelHigh {
		return "high"
	}
	return "low"
}

// ConnectionState models the liveness of the streaming channel.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnected    ConnectionState = "connected"
)

// RecordingState models the push-to-talk lifecycle.
type RecordingState string

const (
	RecordingIdle   RecordingState = "idle"
	RecordingActive RecordingState = "recording"
)

// PlaybackState models the speaker lifecycle. Buffering below the start
// threshold is folded into PlaybackIdle.
type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackPlaying PlaybackState = "playing"
)

// FrameKind identifies an inbound message.
type FrameKind string

const (
	FrameBinary FrameKind = "binary"
	FrameText   FrameKind = "text"
)

// Frame is one inbound message from the remote service.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// Face identifies the image shown on the status display.
type Face string

const (
	FaceIdle      Face = "idle"
	FaceListening Face = "listening"
	FaceSpeaking  Face = "speaking"
)

// Fixed captions rendered by the device itself.
const (
	CaptionGreeting  = "Hi! My name is Petra!"
	CaptionListening = "I'm listening!"
	CaptionThinking  = "Hold on! Let me think."
)

// ErrorCode classifies locally absorbed failures for logs and metrics.
type ErrorCode string

const (
	ErrorCodeStartup  ErrorCode = "startup"
	ErrorCodeOverflow ErrorCode = "buffer_overflow"
	ErrorCodeConnect  ErrorCode = "connect"
	ErrorCodeSend     ErrorCode = "send"
	ErrorCodeCapture  ErrorCode = "capture"
	ErrorCodePlayback ErrorCode = "playback"
	ErrorCodeCaption  ErrorCode = "caption"
)

// Status summarizes the device for UIs.
type Status struct {
	Connection ConnectionState `json:"connection"`
	Recording  RecordingState  `json:"recording"`
	Playback   PlaybackState   `json:"playback"`
	Buffered   int             `json:"buffered"`
}
