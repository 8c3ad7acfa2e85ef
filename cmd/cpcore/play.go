// play.go - `cpcore play`: stand-alone .ay music playback through the
// same PSG engine and oto backend the full emulator uses, without
// bringing up a machine or a window.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpcdevtools/cpcore/cmd/cpcore/audio"
	"github.com/cpcdevtools/cpcore/internal/psg"
)

func newPlayCmd() *cobra.Command {
	var sampleRate int
	var maxSeconds int
	var loop bool

	cmd := &cobra.Command{
		Use:   "play <file.ay>",
		Short: "Play an .ay music file through the PSG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chip := psg.NewSoundChip(sampleRate)
			engine := psg.NewPSGEngine(chip, sampleRate)

			meta, err := psg.LoadAYFile(args[0], engine)
			if err != nil {
				return fmt.Errorf("cpcore: load ay file: %w", err)
			}
			if loop {
				engine.SetForceLoop(true)
			}

			player, err := audio.NewOtoPlayer(sampleRate)
			if err != nil {
				return fmt.Errorf("cpcore: open audio: %w", err)
			}
			player.SetupPlayer(chip)
			player.Start()
			defer player.Close()

			fmt.Printf("playing %q", meta.Title)
			if meta.Author != "" {
				fmt.Printf(" by %s", meta.Author)
			}
			fmt.Printf(" (%s)\n", meta.System)

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			deadline := time.NewTimer(time.Duration(maxSeconds) * time.Second)
			defer deadline.Stop()
			poll := time.NewTicker(100 * time.Millisecond)
			defer poll.Stop()

			for engine.IsPlaying() {
				select {
				case <-interrupt:
					return nil
				case <-deadline.C:
					return nil
				case <-poll.C:
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 44100, "output sample rate in Hz")
	cmd.Flags().IntVar(&maxSeconds, "max-seconds", 300, "stop after this many seconds even if the track loops")
	cmd.Flags().BoolVar(&loop, "loop", false, "loop from the start when the track ends")
	return cmd
}
