// disc.go - `cpcore disc`: format/list/extract operate on a .dsk file
// directly through internal/dsk and internal/cpm; insert asks an
// already-running instance to swap drive A via the IPC listener
// internal/machine.Feed owns.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cpcdevtools/cpcore/internal/cpm"
	"github.com/cpcdevtools/cpcore/internal/dsk"
	"github.com/cpcdevtools/cpcore/internal/machine"
)

func newDiscCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disc",
		Short: "Work with .dsk disc images",
	}
	cmd.AddCommand(newDiscFormatCmd())
	cmd.AddCommand(newDiscListCmd())
	cmd.AddCommand(newDiscExtractCmd())
	cmd.AddCommand(newDiscInsertCmd())
	return cmd
}

func newDiscFormatCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "format <path>",
		Short: "Create a blank, CP/M-initialized disc image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cpm.CreateNew(args[0], format); err != nil {
				return fmt.Errorf("cpcore: format disc: %w", err)
			}
			fmt.Printf("formatted %s as %q\n", args[0], format)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "data", "disc layout: "+fmt.Sprint(dsk.FormatNames()))
	return cmd
}

func newDiscListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List the files on a disc image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := dsk.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("cpcore: load disc: %w", err)
			}
			files, err := cpm.ListFiles(drive)
			if err != nil {
				return fmt.Errorf("cpcore: list files: %w", err)
			}
			for _, f := range files {
				flags := ""
				if f.ReadOnly {
					flags += "R"
				}
				if f.System {
					flags += "S"
				}
				fmt.Printf("%3d  %-12s  %8d  %s\n", f.User, f.DisplayName, f.SizeBytes, flags)
			}
			return nil
		},
	}
}

func newDiscExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <path> <filename> <out>",
		Short: "Extract one file from a disc image to a host path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := dsk.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("cpcore: load disc: %w", err)
			}
			data, err := cpm.ReadFile(drive, args[1])
			if err != nil {
				return fmt.Errorf("cpcore: read %s: %w", args[1], err)
			}
			if err := os.WriteFile(args[2], data, 0o644); err != nil {
				return fmt.Errorf("cpcore: write %s: %w", args[2], err)
			}
			return nil
		},
	}
}

func newDiscInsertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <path>",
		Short: "Insert a disc image into drive A of an already-running instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err := machine.SendIPCOpen("disc", abs); err != nil {
				return fmt.Errorf("cpcore: insert disc: %w", err)
			}
			return nil
		},
	}
}
