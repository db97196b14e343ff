package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func newRootCommand() *cobra.Command {
	var opts globalOptions
	rootCmd := &cobra.Command{
		Use:   "pointview",
		Short: "Terminal client for a point cloud render service",
		Long: `pointview drives a remote point cloud renderer from the terminal.
Arrow keys rotate the camera and change its distance, +/- change the focal
length, and every change posts the selected point set to the render service
and shows the returned image.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, &opts)
		},
	}
	opts.register(rootCmd)
	rootCmd.AddCommand(newRenderCommand(&opts))
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
