package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "petra"

var (
	resultOK     = metric.WithAttributes(attribute.String("result", "ok"))
	resultFailed = metric.WithAttributes(attribute.String("result", "failed"))
)

// Metrics records device counters through the OpenTelemetry API. It
// satisfies ports.Telemetry.
type Metrics struct {
	meter metric.Meter

	droppedFrames    metric.Int64Counter
	droppedSamples   metric.Int64Counter
	connectAttempts  metric.Int64Counter
	chunksSent       metric.Int64Counter
	playbackEpisodes metric.Int64Counter
	samplesPlayed    metric.Int64Counter
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{meter: m}
	var err error

	if met.droppedFrames, err = m.Int64Counter("petra.inbound.dropped_frames",
		metric.WithDescription("Inbound audio frames dropped because the ring buffer was full."),
	); err != nil {
		return nil, err
	}
	if met.droppedSamples, err = m.Int64Counter("petra.inbound.dropped_samples",
		metric.WithDescription("Samples carried by dropped inbound frames."),
	); err != nil {
		return nil, err
	}
	if met.connectAttempts, err = m.Int64Counter("petra.stream.connect_attempts",
		metric.WithDescription("Connection attempts to the voice service."),
	); err != nil {
		return nil, err
	}
	if met.chunksSent, err = m.Int64Counter("petra.capture.chunks",
		metric.WithDescription("Captured chunks sent upstream."),
	); err != nil {
		return nil, err
	}
	if met.playbackEpisodes, err = m.Int64Counter("petra.playback.episodes",
		metric.WithDescription("Utterances that reached the playback threshold."),
	); err != nil {
		return nil, err
	}
	if met.samplesPlayed, err = m.Int64Counter("petra.playback.samples",
		metric.WithDescription("Samples written to the speaker."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// ObserveBuffer reports the ring buffer fill level on every collection.
func (m *Metrics) ObserveBuffer(buffered func() int) error {
	_, err := m.meter.Int64ObservableGauge("petra.playback.buffered_samples",
		metric.WithDescription("Samples waiting in the playback ring buffer."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(buffered()))
			return nil
		}),
	)
	return err
}

func (m *Metrics) FrameDropped(samples int) {
	ctx := context.Background()
	m.droppedFrames.Add(ctx, 1)
	m.droppedSamples.Add(ctx, int64(samples))
}

func (m *Metrics) ConnectAttempt(ok bool) {
	m.connectAttempts.Add(context.Background(), 1, result(ok))
}

func (m *Metrics) ChunkSent(ok bool) {
	m.chunksSent.Add(context.Background(), 1, result(ok))
}

func (m *Metrics) PlaybackStarted() {
	m.playbackEpisodes.Add(context.Background(), 1)
}

func (m *Metrics) SamplesPlayed(n int) {
	m.samplesPlayed.Add(context.Background(), int64(n))
}

func result(ok bool) metric.AddOption {
	if ok {
		return resultOK
	}
	return resultFailed
}

// Discard is a Telemetry that records nothing.
type Discard struct{}

func (Discard) FrameDropped(int)    {}
func (Discard) ConnectAttempt(bool) {}
func (Discard) ChunkSent(bool)      {}
func (Discard) PlaybackStarted()    {}
func (Discard) SamplesPlayed(int)   {}
