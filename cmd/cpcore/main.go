// main.go - cpcore CLI entry point: a cobra command tree over the
// emulator core, mirroring the one-struct-many-subsystems wiring
// internal/machine.NewMachine already does for devices.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cpcore",
		Short: "Amstrad CPC 6128/6128+ emulator core",
	}
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDiscCmd())
	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newPlayCmd())
	cmd.AddCommand(newMonitorCmd())
	return cmd
}
