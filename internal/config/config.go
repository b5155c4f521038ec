package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Capture backends.
const (
	CapturePortAudio = "portaudio"
	CaptureFFmpeg    = "ffmpeg"
)

// Config stores the device configuration. It is resolved once at startup
// and never reloaded.
type Config struct {
	Stream   StreamConfig   `yaml:"stream"`
	Audio    AudioConfig    `yaml:"audio"`
	Playback PlaybackConfig `yaml:"playback"`
	Loop     LoopConfig     `yaml:"loop"`
	Caption  CaptionConfig  `yaml:"caption"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type StreamConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	PongTimeout       time.Duration `yaml:"pong_timeout"`
}

type AudioConfig struct {
	CaptureSampleRate   int    `yaml:"capture_sample_rate"`
	PlaybackSampleRate  int    `yaml:"playback_sample_rate"`
	CaptureChunkSamples int    `yaml:"capture_chunk_samples"`
	CaptureBackend      string `yaml:"capture_backend"`
	FFmpegCommand       string `yaml:"ffmpeg_command"`
	FFmpegInputFormat   string `yaml:"ffmpeg_input_format"`
	FFmpegInputDevice   string `yaml:"ffmpeg_input_device"`
	WireFormat          string `yaml:"wire_format"`
	GreetingPath        string `yaml:"greeting_path"`
}

type PlaybackConfig struct {
	BufferCapacity int           `yaml:"buffer_capacity"`
	Threshold      int           `yaml:"threshold"`
	ChunkSamples   int           `yaml:"chunk_samples"`
	SilenceTimeout time.Duration `yaml:"silence_timeout"`
}

type LoopConfig struct {
	IdleTick time.Duration `yaml:"idle_tick"`
}

type CaptionConfig struct {
	RulesPath      string `yaml:"rules_path"`
	IterationLimit int    `yaml:"iteration_limit"`
	MaxRunes       int    `yaml:"max_runes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the values the device ships with.
func Default() Config {
	return Config{
		Stream: StreamConfig{
			Endpoint:          "ws://127.0.0.1:8000/ws",
			ReconnectInterval: 5 * time.Second,
			HandshakeTimeout:  5 * time.Second,
			PingInterval:      20 * time.Second,
			PongTimeout:       30 * time.Second,
		},
		Audio: AudioConfig{
			CaptureSampleRate:   16000,
			PlaybackSampleRate:  8000,
			CaptureChunkSamples: 512,
			CaptureBackend:      CapturePortAudio,
			FFmpegCommand:       "ffmpeg",
			FFmpegInputFormat:   "pulse",
			FFmpegInputDevice:   "default",
			WireFormat:          "u8",
		},
		Playback: PlaybackConfig{
			BufferCapacity: 32000,
			Threshold:      4096,
			ChunkSamples:   512,
			SilenceTimeout: 300 * time.Millisecond,
		},
		Loop: LoopConfig{
			IdleTick: 5 * time.Millisecond,
		},
		Caption: CaptionConfig{
			IterationLimit: 30,
			MaxRunes:       160,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load resolves configuration from defaults, an optional YAML file and
// PETRA_* environment variables, in that order. An empty path falls back
// to PETRA_CONFIG; a missing file at the fallback path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv("PETRA_CONFIG"))
	}
	if path != "" {
		if err := mergeFile(&cfg, path, explicit); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Stream.Endpoint = envOrDefault("PETRA_ENDPOINT", cfg.Stream.Endpoint)
	cfg.Stream.ReconnectInterval = envOrDefaultDuration("PETRA_RECONNECT_INTERVAL", cfg.Stream.ReconnectInterval)
	cfg.Stream.HandshakeTimeout = envOrDefaultDuration("PETRA_HANDSHAKE_TIMEOUT", cfg.Stream.HandshakeTimeout)
	cfg.Stream.PingInterval = envOrDefaultDuration("PETRA_PING_INTERVAL", cfg.Stream.PingInterval)
	cfg.Stream.PongTimeout = envOrDefaultDuration("PETRA_PONG_TIMEOUT", cfg.Stream.PongTimeout)

	cfg.Audio.CaptureSampleRate = envOrDefaultInt("PETRA_CAPTURE_SAMPLE_RATE", cfg.Audio.CaptureSampleRate)
	cfg.Audio.PlaybackSampleRate = envOrDefaultInt("PETRA_PLAYBACK_SAMPLE_RATE", cfg.Audio.PlaybackSampleRate)
	cfg.Audio.CaptureChunkSamples = envOrDefaultInt("PETRA_CAPTURE_CHUNK_SAMPLES", cfg.Audio.CaptureChunkSamples)
	cfg.Audio.CaptureBackend = envOrDefault("PETRA_CAPTURE_BACKEND", cfg.Audio.CaptureBackend)
	cfg.Audio.FFmpegCommand = envOrDefault("PETRA_FFMPEG_COMMAND", cfg.Audio.FFmpegCommand)
	cfg.Audio.FFmpegInputFormat = envOrDefault("PETRA_FFMPEG_INPUT_FORMAT", cfg.Audio.FFmpegInputFormat)
	cfg.Audio.FFmpegInputDevice = envOrDefault("PETRA_FFMPEG_INPUT_DEVICE", cfg.Audio.FFmpegInputDevice)
	cfg.Audio.WireFormat = envOrDefault("PETRA_WIRE_FORMAT", cfg.Audio.WireFormat)
	cfg.Audio.GreetingPath = envOrDefault("PETRA_GREETING_PATH", cfg.Audio.GreetingPath)

	cfg.Playback.BufferCapacity = envOrDefaultInt("PETRA_BUFFER_CAPACITY", cfg.Playback.BufferCapacity)
	cfg.Playback.Threshold = envOrDefaultInt("PETRA_PLAYBACK_THRESHOLD", cfg.Playback.Threshold)
	cfg.Playback.ChunkSamples = envOrDefaultInt("PETRA_PLAYBACK_CHUNK_SAMPLES", cfg.Playback.ChunkSamples)
	cfg.Playback.SilenceTimeout = envOrDefaultDuration("PETRA_SILENCE_TIMEOUT", cfg.Playback.SilenceTimeout)

	cfg.Loop.IdleTick = envOrDefaultDuration("PETRA_IDLE_TICK", cfg.Loop.IdleTick)

	cfg.Caption.RulesPath = envOrDefault("PETRA_CAPTION_RULES", cfg.Caption.RulesPath)
	cfg.Caption.IterationLimit = envOrDefaultInt("PETRA_CAPTION_ITERATION_LIMIT", cfg.Caption.IterationLimit)
	cfg.Caption.MaxRunes = envOrDefaultInt("PETRA_CAPTION_MAX_RUNES", cfg.Caption.MaxRunes)

	cfg.Log.Level = envOrDefault("PETRA_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("PETRA_LOG_FORMAT", cfg.Log.Format)

	cfg.Metrics.ListenAddr = envOrDefault("PETRA_METRICS_ADDR", cfg.Metrics.ListenAddr)
}

// normalize clamps out-of-range values back to their defaults.
func normalize(cfg *Config) {
	def := Default()

	if cfg.Stream.ReconnectInterval <= 0 {
		cfg.Stream.ReconnectInterval = def.Stream.ReconnectInterval
	}
	if cfg.Stream.HandshakeTimeout <= 0 {
		cfg.Stream.HandshakeTimeout = def.Stream.HandshakeTimeout
	}
	if cfg.Stream.PingInterval < 0 {
		cfg.Stream.PingInterval = 0
	}
	if cfg.Stream.PongTimeout < cfg.Stream.PingInterval {
		cfg.Stream.PongTimeout = 0
	}
	if cfg.Audio.CaptureSampleRate <= 0 {
		cfg.Audio.CaptureSampleRate = def.Audio.CaptureSampleRate
	}
	if cfg.Audio.PlaybackSampleRate <= 0 {
		cfg.Audio.PlaybackSampleRate = def.Audio.PlaybackSampleRate
	}
	if cfg.Audio.CaptureChunkSamples < 64 {
		cfg.Audio.CaptureChunkSamples = def.Audio.CaptureChunkSamples
	}
	cfg.Audio.CaptureBackend = strings.ToLower(cfg.Audio.CaptureBackend)
	if cfg.Playback.BufferCapacity <= 0 {
		cfg.Playback.BufferCapacity = def.Playback.BufferCapacity
	}
	if cfg.Playback.ChunkSamples <= 0 {
		cfg.Playback.ChunkSamples = def.Playback.ChunkSamples
	}
	if cfg.Playback.SilenceTimeout <= 0 {
		cfg.Playback.SilenceTimeout = def.Playback.SilenceTimeout
	}
	if cfg.Loop.IdleTick <= 0 {
		cfg.Loop.IdleTick = def.Loop.IdleTick
	}
	if cfg.Caption.IterationLimit <= 0 {
		cfg.Caption.IterationLimit = def.Caption.IterationLimit
	}
	if cfg.Caption.MaxRunes < 0 {
		cfg.Caption.MaxRunes = 0
	}
}

// Validate reports settings that cannot be clamped to a safe value.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.Stream.Endpoint, "ws://") && !strings.HasPrefix(c.Stream.Endpoint, "wss://") {
		errs = append(errs, fmt.Errorf("stream.endpoint must be a ws:// or wss:// URL, got %q", c.Stream.Endpoint))
	}
	if c.Playback.Threshold <= 0 || c.Playback.Threshold > c.Playback.BufferCapacity {
		errs = append(errs, fmt.Errorf("playback.threshold must be in (0, %d], got %d", c.Playback.BufferCapacity, c.Playback.Threshold))
	}
	switch c.Audio.CaptureBackend {
	case CapturePortAudio, CaptureFFmpeg:
	default:
		errs = append(errs, fmt.Errorf("audio.capture_backend must be %q or %q, got %q", CapturePortAudio, CaptureFFmpeg, c.Audio.CaptureBackend))
	}
	switch strings.ToLower(c.Audio.WireFormat) {
	case "u8", "s16le":
	default:
		errs = append(errs, fmt.Errorf("audio.wire_format must be u8 or s16le, got %q", c.Audio.WireFormat))
	}
	return errors.Join(errs...)
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// envOrDefaultDuration accepts Go duration syntax or a bare number of
// milliseconds.
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
