package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"basegraph.app/forge/internal/scad"
)

func newRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair [file.scad]",
		Short: "Print the auto-repaired form of an OpenSCAD file",
		Long:  "Applies the same textual repairs the generator runs before compiling. Reads stdin when no file or '-' is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				src []byte
				err error
			)
			if len(args) == 0 || args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}

			out := scad.TextRepairer{}.Repair(string(src))
			if !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
}
