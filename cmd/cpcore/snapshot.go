// snapshot.go - `cpcore snapshot`: inspect a .SNA image offline, or
// ask an already-running instance to restore one via the IPC listener
// internal/machine.Feed owns.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cpcdevtools/cpcore/internal/machine"
	"github.com/cpcdevtools/cpcore/internal/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Work with .SNA machine snapshots",
	}
	cmd.AddCommand(newSnapshotInfoCmd())
	cmd.AddCommand(newSnapshotLoadCmd())
	return cmd
}

func newSnapshotInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Print the register and memory summary of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("cpcore: load snapshot: %w", err)
			}
			z := snap.CPU
			fmt.Printf("version %d, %d KiB RAM\n", snap.Version, len(snap.Memory)/1024)
			fmt.Printf("AF=%04X BC=%04X DE=%04X HL=%04X\n", z.AF, z.BC, z.DE, z.HL)
			fmt.Printf("IX=%04X IY=%04X SP=%04X PC=%04X IM=%d\n", z.IX, z.IY, z.SP, z.PC, z.IM)
			fmt.Printf("screen mode %d, RAM config %02X, upper ROM %d\n",
				snap.GateArray.Mode, snap.RAMConfig.Config, snap.RAMConfig.UpperROM)
			return nil
		},
	}
}

func newSnapshotLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Restore a snapshot into an already-running instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err := machine.SendIPCOpen("snapshot", abs); err != nil {
				return fmt.Errorf("cpcore: load snapshot: %w", err)
			}
			return nil
		},
	}
}
