package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"pointview/internal/config"
	"pointview/internal/dataset"
	"pointview/internal/render"
)

// globalOptions are the flags shared by every command. Set flags win over
// the environment, which wins over the config file.
type globalOptions struct {
	configPath string
	origin     string
	timeout    time.Duration
	logFile    string
	dataset    int
	debug      bool

	flags interface{ Changed(string) bool }
}

func (o *globalOptions) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Path to pointview.yaml")
	pf.StringVar(&o.origin, "origin", "", "Origin of the render service (e.g. http://localhost:8000/)")
	pf.DurationVar(&o.timeout, "timeout", 0, "Timeout for one refresh (dataset + render)")
	pf.StringVar(&o.logFile, "log-file", "", "Log file for the interactive client (empty config value disables logging)")
	pf.IntVar(&o.dataset, "dataset", 0, "Initially selected dataset (0-based)")
	pf.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	o.flags = pf
}

// load reads the config and applies flag overrides on top.
func (o *globalOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	return o.override(cfg)
}

func (o *globalOptions) override(cfg config.Config) (config.Config, error) {
	if o.flags.Changed("origin") {
		cfg.Origin = o.origin
	}
	if o.flags.Changed("timeout") {
		cfg.RenderTimeout = o.timeout
	}
	if o.flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if o.flags.Changed("dataset") {
		cfg.Dataset = o.dataset
	}
	return cfg, cfg.Validate()
}

func (o *globalOptions) level() slog.Level {
	if o.debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// clients builds the dataset provider and render client for cfg.
func clients(cfg config.Config, log *slog.Logger) (*dataset.Provider, *render.Client) {
	hc := &http.Client{}
	p := dataset.NewProvider(cfg.PointsURL(),
		dataset.WithHTTPClient(hc),
		dataset.WithLogger(log),
		dataset.WithFetchTimeout(cfg.RenderTimeout),
	)
	r := render.NewClient(cfg.RenderURL(), cfg.FallbackURL(), render.WithHTTPClient(hc), render.WithLogger(log))
	return p, r
}
