package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "forge",
		Short:         "Generate 3D-printable STL models from text prompts",
		Long:          "forge asks an LLM for OpenSCAD source, repairs common mistakes, and compiles it to STL with openscad.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newGenerateCmd(), newRepairCmd())
	return root
}
