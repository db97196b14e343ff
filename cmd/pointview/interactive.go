package main

import (
	"context"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pointview/internal/config"
	"pointview/internal/controller"
	"pointview/internal/tui"
)

func runInteractive(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	// the terminal belongs to the UI, so logs go to a file
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "pointview")
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: opts.level()}))
	slog.SetDefault(log)

	provider, renderer := clients(cfg, log)
	ctrl := controller.New(provider, renderer,
		controller.WithLogger(log),
		controller.WithParams(cfg.Initial),
		controller.WithSelection(cfg.Dataset),
		controller.WithStep(cfg.Step),
		controller.WithTimeout(cfg.RenderTimeout),
	)
	defer ctrl.Close()

	m := tui.New(ctrl, tui.WithReconfigure(func(c config.Config) {
		provider.SetURL(c.PointsURL())
		renderer.SetURLs(c.RenderURL(), c.FallbackURL())
	}))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if opts.configPath != "" {
		go func() {
			err := config.Watch(ctx, opts.configPath, log, func(c config.Config, err error) {
				if err == nil {
					c, err = opts.override(c)
				}
				p.Send(tui.ConfigReloadedMsg{Config: c, Err: err})
			})
			if err != nil {
				log.Warn("config watcher stopped", "err", err)
			}
		}()
	}

	log.Info("starting", "origin", cfg.Origin, "dataset", cfg.Dataset)
	_, err = p.Run()
	return err
}
