// monitor.go - `cpcore monitor`: the machine monitor as a line-mode
// terminal session over a headless machine, for poking at ROMs and
// disc software without opening a window.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpcdevtools/cpcore/internal/machine"
	"github.com/cpcdevtools/cpcore/internal/obs"
	"github.com/cpcdevtools/cpcore/internal/z80"
)

func newMonitorCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Open the machine monitor on a headless machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigWithOverrides(&runOptions{configPath: configPath})
			if err != nil {
				return err
			}
			m, err := machine.NewMachine(cfg, obs.Nop())
			if err != nil {
				return fmt.Errorf("cpcore: build machine: %w", err)
			}

			mon := z80.NewMachineMonitor(nil)
			mon.RegisterCPU("z80", z80.NewDebugZ80(m.CPU))
			mon.StartBreakpointListener()
			mon.Activate()
			defer mon.Deactivate()

			printMonitorOutput(mon)
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print(". ")
			for scanner.Scan() {
				if mon.ExecuteCommand(scanner.Text()) {
					break
				}
				printMonitorOutput(mon)
				fmt.Print(". ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.toml (defaults used if omitted)")
	return cmd
}

func printMonitorOutput(mon *z80.MachineMonitor) {
	for _, line := range mon.DrainOutput() {
		fmt.Println(line.Text)
	}
}
