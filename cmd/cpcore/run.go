// run.go - `cpcore run`: builds a Machine from config/flags, drives
// it from the ebiten video backend's per-tick callback the way
// video.EbitenOutput.SetUpdateCallback documents, and feeds audio
// from the same PSG chip instance.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpcdevtools/cpcore/cmd/cpcore/audio"
	"github.com/cpcdevtools/cpcore/cmd/cpcore/compose"
	"github.com/cpcdevtools/cpcore/cmd/cpcore/video"
	"github.com/cpcdevtools/cpcore/internal/config"
	"github.com/cpcdevtools/cpcore/internal/machine"
	"github.com/cpcdevtools/cpcore/internal/must"
	"github.com/cpcdevtools/cpcore/internal/obs"
	"github.com/cpcdevtools/cpcore/internal/snapshot"
)

// cyclesPerFrame approximates a CPC's ~4MHz clock at a 50Hz field
// rate. The CRTC's own Tick calls are what actually end a frame
// (GateArray.OnVSync via the CRTC's Edges); this is only the upper
// bound RunUntilFrameComplete uses to avoid spinning forever if a
// misbehaving program disables interrupts and vsync never fires.
const cyclesPerFrame = 80000

type runOptions struct {
	configPath   string
	lowerROM     string
	driveA       string
	driveB       string
	scale        int
	fullscreen   bool
	noAudio      bool
	logLevel     string
	snapshotIn   string
	autotypeFile string
	debugConsole bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{scale: 2, logLevel: "info"}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the emulator with a window and audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.toml (defaults used if omitted)")
	flags.StringVar(&opts.lowerROM, "lower-rom", "", "override the lower ROM image path")
	flags.StringVar(&opts.driveA, "drive-a", "", "override the drive A disc image path")
	flags.StringVar(&opts.driveB, "drive-b", "", "override the drive B disc image path")
	flags.IntVar(&opts.scale, "scale", 2, "integer window scale factor")
	flags.BoolVar(&opts.fullscreen, "fullscreen", false, "start in fullscreen")
	flags.BoolVar(&opts.noAudio, "no-audio", false, "disable the PSG audio backend")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn, or error")
	flags.StringVar(&opts.snapshotIn, "snapshot", "", "load a .SNA snapshot before starting")
	flags.StringVar(&opts.autotypeFile, "autotype", "", "text file to type into the emulated keyboard at startup")
	flags.BoolVar(&opts.debugConsole, "debug", false, "attach the raw-mode debugger console on stdin/stdout")
	return cmd
}

func runMachine(opts *runOptions) error {
	cfg, err := loadConfigWithOverrides(opts)
	if err != nil {
		return err
	}

	log, err := obs.New(opts.logLevel, obs.FormatConsole)
	if err != nil {
		return err
	}
	defer log.Sync()

	m, err := machine.NewMachine(cfg, log)
	if err != nil {
		return fmt.Errorf("cpcore: build machine: %w", err)
	}

	if opts.snapshotIn != "" {
		snap, err := snapshot.LoadFile(opts.snapshotIn)
		if err != nil {
			return fmt.Errorf("cpcore: load snapshot: %w", err)
		}
		if err := m.Restore(snap); err != nil {
			return fmt.Errorf("cpcore: restore snapshot: %w", err)
		}
	}
	if opts.autotypeFile != "" {
		text, err := os.ReadFile(opts.autotypeFile)
		if err != nil {
			return fmt.Errorf("cpcore: read autotype file: %w", err)
		}
		if err := m.Autotype.Enqueue(string(text)); err != nil {
			return fmt.Errorf("cpcore: parse autotype file: %w", err)
		}
	}

	vid, err := video.NewVideoOutput(video.VIDEO_BACKEND_EBITEN)
	if err != nil {
		return fmt.Errorf("cpcore: open video: %w", err)
	}
	if err := vid.SetDisplayConfig(video.DisplayConfig{
		Width: compose.Width, Height: compose.Height,
		Scale: opts.scale, RefreshRate: 50, VSync: true, Fullscreen: opts.fullscreen,
	}); err != nil {
		return fmt.Errorf("cpcore: configure video: %w", err)
	}

	var lock sync.Mutex
	locked := func(fn func()) { lock.Lock(); defer lock.Unlock(); fn() }

	if kb, ok := vid.(video.KeyboardInput); ok {
		kb.SetKeyHandler(func(b byte) {
			locked(func() { _ = m.Autotype.Enqueue(string(rune(b))) })
		})
	}
	if hr, ok := vid.(video.HardResettable); ok {
		hr.SetHardResetHandler(func() {
			locked(m.Reset)
		})
	}

	var player *audio.OtoPlayer
	if !opts.noAudio && cfg.Audio.Enabled {
		player, err = audio.NewOtoPlayer(cfg.Audio.SampleRate)
		if err != nil {
			log.Warnf("cpcore: audio disabled: %v", err)
			player = nil
		} else {
			player.SetupPlayer(m.Chip)
			player.Start()
			defer player.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := machine.NewFeed(m, locked)
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Warnf("cpcore: ipc listener: %v", err)
		}
	}()

	var dbg *debugConsole
	if opts.debugConsole {
		dbg = newDebugConsole(m, locked)
		dbg.Start()
		defer dbg.Stop()
	}

	// A violated core invariant is a bug, not a user error: release
	// builds log it and stop the machine instead of crashing out from
	// under the window (debug builds keep the aborting panic).
	var fatalInvariant atomic.Bool
	stepFrame := func() {
		must.Protect(func() {
			locked(func() {
				m.RunUntilFrameComplete(cyclesPerFrame)
				feed.Publish()
			})
			frame := compose.Frame(m.Mem, m.GateArray)
			_ = vid.UpdateFrame(frame)
		}, func(msg string) {
			log.Errorf("cpcore: invariant violated: %s", msg)
			m.Pause()
			fatalInvariant.Store(true)
		})
	}

	// EbitenOutput drives stepFrame itself, once per Update tick, via
	// the callback video.EbitenOutput.SetUpdateCallback documents. The
	// headless backend has no event loop of its own, so it falls
	// through to the manual ticker below instead.
	driven, hasUpdateHook := vid.(interface{ SetUpdateCallback(func()) })
	if hasUpdateHook {
		driven.SetUpdateCallback(stepFrame)
	}

	if err := vid.Start(); err != nil {
		return fmt.Errorf("cpcore: start video: %w", err)
	}
	defer vid.Close()

	if !hasUpdateHook {
		ticker := time.NewTicker(time.Second / 50)
		defer ticker.Stop()
		for vid.IsStarted() && !fatalInvariant.Load() {
			<-ticker.C
			stepFrame()
		}
	} else {
		for vid.IsStarted() && !fatalInvariant.Load() {
			time.Sleep(50 * time.Millisecond)
		}
	}
	if fatalInvariant.Load() {
		return fmt.Errorf("cpcore: stopped on a violated core invariant (see log)")
	}
	return nil
}

func loadConfigWithOverrides(opts *runOptions) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Default()
	}

	if opts.lowerROM != "" {
		cfg.Machine.LowerROM = opts.lowerROM
	}
	if opts.driveA != "" {
		cfg.Discs.DriveA = opts.driveA
	}
	if opts.driveB != "" {
		cfg.Discs.DriveB = opts.driveB
	}
	if opts.noAudio {
		cfg.Audio.Enabled = false
	}
	return cfg, nil
}
