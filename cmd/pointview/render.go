package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pointview/internal/controller"
	"pointview/internal/view"
)

func newRenderCommand(opts *globalOptions) *cobra.Command {
	var rotation, distance, focal float64
	var output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one view and write the image to a file",
		Long: `Runs a single refresh cycle without the interactive UI: loads the
selected dataset, posts it with the given view parameters and writes the
returned image. On failure the placeholder image is written and the command
exits non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.level()}))

			params := cfg.Initial
			if cmd.Flags().Changed("rotation") {
				params.Rotation = rotation
			}
			if cmd.Flags().Changed("distance") {
				params.Distance = distance
			}
			if cmd.Flags().Changed("focal-length") {
				params.FocalLength = focal
			}
			if !params.Valid() {
				return errors.New("view parameters must be finite numbers")
			}

			provider, renderer := clients(cfg, log)
			ctrl := controller.New(provider, renderer,
				controller.WithLogger(log),
				controller.WithParams(params),
				controller.WithSelection(cfg.Dataset),
				controller.WithTimeout(cfg.RenderTimeout),
			)
			defer ctrl.Close()
			ctrl.Run(ctrl.Refresh())

			img := ctrl.Image()
			if err := os.WriteFile(output, img.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			log.Info("wrote image", "path", output, "bytes", len(img.Data), "fallback", img.Fallback,
				view.Rotation.ID(), params.Rotation, view.Distance.ID(), params.Distance, view.FocalLength.ID(), params.FocalLength)
			if err := ctrl.Err(); err != nil {
				return fmt.Errorf("%s (placeholder written to %s)", err, output)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&rotation, "rotation", 0, "Camera rotation around the z axis (radians)")
	cmd.Flags().Float64Var(&distance, "distance", 0, "Camera distance from the origin")
	cmd.Flags().Float64Var(&focal, "focal-length", 0, "Focal length (mm)")
	cmd.Flags().StringVarP(&output, "output", "o", "render.png", "Output image path")
	return cmd
}
