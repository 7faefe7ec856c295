// Package main provides the descent CLI.
//
// Usage:
//
//	descent train --optimizer adam --lr 0.01 --workers 4 --steps 500
//	descent train --optimizer sgd --momentum 0.9 --checkpoint sgd.ckpt
//	descent version
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "descent",
		Short:        "Gradient descent optimizers with data-parallel training",
		SilenceUsage: true,
	}
	root.AddCommand(newTrainCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("descent %s\n", version)
		},
	}
}
