package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"petra/internal/bootstrap"
	"petra/internal/config"
	"petra/internal/control"
	"petra/internal/display"
	"petra/internal/hardware"
	"petra/internal/observe"
	"petra/internal/ports"
)

var headless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device",
	Long: `Run the device against the configured voice service.

Space or enter toggles push-to-talk; q or Ctrl-C quits. With --headless the
status screen is written to the log instead of drawn in the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDevice(ctx, cfg)
	},
}

func init() {
	runCmd.Flags().BoolVar(&headless, "headless", false, "log display changes instead of drawing the status screen")
	rootCmd.AddCommand(runCmd)
}

func runDevice(ctx context.Context, cfg config.Config) error {
	deviceID := uuid.NewString()
	log := observe.NewLogger(cfg.Log, os.Stderr, deviceID)

	var (
		telemetry ports.Telemetry = observe.Discard{}
		metrics   *observe.Metrics
		provider  *observe.Provider
	)
	if cfg.Metrics.ListenAddr != "" {
		var err error
		if provider, err = observe.InitProvider(observe.ProviderConfig{ServiceVersion: Version, DeviceID: deviceID}); err != nil {
			return err
		}
		defer func() { _ = provider.Shutdown(context.Background()) }()
		if metrics, err = observe.NewMetrics(provider); err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		telemetry = metrics
	}

	devices, err := hardware.Open(ctx, cfg.Audio)
	if err != nil {
		log.Error().Err(err).Str("code", "startup").Msg("audio hardware unavailable")
		return err
	}
	defer func() {
		if err := devices.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release audio hardware")
		}
	}()

	keyboard := control.NewKeyboard(os.Stdin)
	screen, indicator := presenters(log)

	services, err := bootstrap.Build(bootstrap.Options{
		Config:    cfg,
		Capture:   devices.Capture,
		Sink:      devices.Sink,
		Display:   screen,
		Control:   keyboard,
		Indicator: indicator,
		Logger:    log,
		Telemetry: telemetry,
	})
	if err != nil {
		return err
	}
	if metrics != nil {
		if err := metrics.ObserveBuffer(services.Buffer.BufferedLength); err != nil {
			return fmt.Errorf("failed to register buffer gauge: %w", err)
		}
	}

	if err := services.Device.Start(ctx); err != nil {
		log.Error().Err(err).Str("code", "startup").Msg("device failed to start")
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return services.Device.Run(gctx) })
	g.Go(func() error { return keyboard.Run(gctx) })
	if provider != nil {
		g.Go(func() error { return observe.Serve(gctx, cfg.Metrics.ListenAddr, provider.Handler()) })
	}

	err = g.Wait()
	if errors.Is(err, control.ErrQuit) {
		err = nil
	}
	log.Info().Msg("device stopped")
	return err
}

func presenters(log zerolog.Logger) (ports.DisplayPresenter, ports.Indicator) {
	if headless {
		d := display.NewLog(log)
		return d, d
	}
	t := display.NewTerminal(os.Stdout, 40, display.DefaultTheme)
	return t, t
}
