package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/0xlemi/looper/internal/audio"
	"github.com/0xlemi/looper/internal/config"
	"github.com/0xlemi/looper/internal/control"
	"github.com/0xlemi/looper/internal/looper"
	"github.com/0xlemi/looper/internal/monitor"
	"github.com/0xlemi/looper/internal/transport"
	"github.com/0xlemi/looper/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const (
	clientName = "looper"

	// Largest block the tap accepts when the backend picks the block size
	maxTapBlock = 8192

	// Tone played into the sim backend
	simToneHz        = 220.0
	simToneAmplitude = 0.25

	uiQueueSize = 64
)

func runSession(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := flags.load(cmd.Flags())
	if err != nil {
		return err
	}

	// The terminal UI owns the screen, so without a log file it logs nowhere
	fallback := io.Discard
	if flags.headless {
		fallback = cmd.ErrOrStderr()
	}
	logger, closeLog, err := newLogger(cfg.Log, fallback)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := newSession(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if flags.headless {
		err = s.runHeadless(ctx, os.Stdin)
	} else {
		err = s.runUI(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "goodbye!")
	return nil
}

// session wires the transport, the loop engine and the monitor tap for one
// run of the looper
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer

	transport *transport.Transport
	loop      *looper.Engine
	tap       *monitor.Tap
}

func newSession(cfg *config.Config, logger *slog.Logger, out io.Writer) (*session, error) {
	policy, err := config.RecordOutputPolicy(cfg.Looper.RecordOutput)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		transport: transport.New(),
	}

	opts := []looper.Option{
		looper.WithRecordOutput(policy),
		looper.WithCapacity(cfg.PreallocateFrames()),
	}
	if cfg.Monitor.Enabled {
		maxBlock := cfg.Audio.FramesPerBuffer
		if maxBlock == 0 {
			maxBlock = maxTapBlock
		}
		s.tap = monitor.NewTap(cfg.Monitor.Window*2, maxBlock)
		opts = append(opts, looper.WithTap(s.tap))
	}
	s.loop = looper.New(s.transport, opts...)

	return s, nil
}

// newEngine creates the configured backend around the loop engine
func (s *session) newEngine(n audio.Notifier) (audio.Engine, error) {
	a := s.cfg.Audio

	switch a.Backend {
	case config.BackendSim:
		rate := int(a.SampleRate)
		src := &audio.SineSource{Frequency: simToneHz, SampleRate: rate, Amplitude: simToneAmplitude}
		return audio.NewSimEngine(audio.SimConfig{
			Name:            clientName,
			SampleRate:      rate,
			FramesPerBuffer: a.FramesPerBuffer,
		}, s.loop, src, n), nil

	case config.BackendPortAudio:
		engine, err := audio.NewPortAudioEngine(audio.PortAudioConfig{
			Name:            clientName,
			SampleRate:      a.SampleRate,
			FramesPerBuffer: a.FramesPerBuffer,
			InputDevice:     a.InputDevice,
			OutputDevice:    a.OutputDevice,
			LowLatency:      a.LowLatency,
		}, s.loop, n)
		if err != nil {
			return nil, fmt.Errorf("failed to create audio engine: %w", err)
		}
		return engine, nil

	default:
		return nil, config.ValidationError{Field: "audio.backend", Message: fmt.Sprintf("unknown backend %q", a.Backend)}
	}
}

// startMonitor analyses the tap until the returned stop function is called
func (s *session) startMonitor(ctx context.Context, sampleRate float64, onReading func(monitor.Reading)) (stop func()) {
	if s.tap == nil {
		return func() {}
	}

	m := monitor.New(s.tap, int(sampleRate), s.cfg.Monitor.Window, s.cfg.Monitor.Interval)
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Run(ctx, onReading)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// runHeadless advances the transport from in until the session stops
func (s *session) runHeadless(ctx context.Context, in io.Reader) error {
	engine, err := s.newEngine(audio.NewLogNotifier(s.logger))
	if err != nil {
		return err
	}
	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start audio engine: %w", err)
	}

	stopMonitor := s.startMonitor(ctx, engine.SampleRate(), func(r monitor.Reading) {
		args := []any{"db", r.DB}
		if r.Note != nil {
			args = append(args, "note", fmt.Sprintf("%s%d", r.Note.Name, r.Note.Octave), "cents", r.Note.Cents)
		}
		s.logger.Debug("input", args...)
	})

	fmt.Fprintln(s.out, "Press Enter to advance: record, loop, stop")
	runErr := control.Run(ctx, in, s.transport, s.logger)

	stopMonitor()
	stopErr := s.stopEngine(engine)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return stopErr
}

// runUI runs the terminal UI until it quits
func (s *session) runUI(ctx context.Context) error {
	uiCtx, cancelUI := context.WithCancel(ctx)
	defer cancelUI()

	model := ui.NewModel(s.transport, s.loop, s.cfg.Audio.SampleRate)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(uiCtx))
	uiNotifier := ui.NewNotifier(p, uiQueueSize)

	engine, err := s.newEngine(audio.MultiNotifier{audio.NewLogNotifier(s.logger), uiNotifier})
	if err != nil {
		cancelUI()
		uiNotifier.Close()
		return err
	}
	if err := engine.Start(); err != nil {
		// Unblocks sends to the program that never ran
		cancelUI()
		uiNotifier.Close()
		return fmt.Errorf("failed to start audio engine: %w", err)
	}

	stopMonitor := s.startMonitor(uiCtx, engine.SampleRate(), func(r monitor.Reading) {
		p.Send(ui.UpdateReadingMsg(r))
	})

	_, runErr := p.Run()

	stopMonitor()
	stopErr := s.stopEngine(engine)
	uiNotifier.Close()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run ui: %w", runErr)
	}
	return stopErr
}

// stopEngine deactivates the engine. It is the only teardown and runs before
// the process exits.
func (s *session) stopEngine(engine audio.Engine) error {
	err := engine.Stop()
	s.logger.Info("session ended",
		"state", s.transport.State().String(),
		"engine_state", s.loop.LastState().String(),
		"loop_frames", s.loop.LoopFrames(),
	)
	if s.tap != nil && s.tap.Dropped() > 0 {
		s.logger.Debug("monitor dropped blocks", "count", s.tap.Dropped())
	}
	if err != nil {
		return fmt.Errorf("failed to stop audio engine: %w", err)
	}
	return nil
}
