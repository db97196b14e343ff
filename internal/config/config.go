package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pointview/internal/view"
)

// Config is the pointview.yaml configuration.
type Config struct {
	// Origin is the base URL the paths below are joined to.
	Origin       string `yaml:"origin"`
	PointsPath   string `yaml:"points_path"`
	RenderPath   string `yaml:"render_path"`
	FallbackPath string `yaml:"fallback_path"`

	RenderTimeout time.Duration `yaml:"render_timeout"`
	Step          float64       `yaml:"step"`

	Initial view.Params `yaml:"initial"`
	// Dataset is the initially selected set (0-based).
	Dataset int `yaml:"dataset"`

	LogFile string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		Origin:        "http://localhost:8000/",
		PointsPath:    "/data/points.json",
		RenderPath:    "/api/render",
		FallbackPath:  "/img/black.png",
		RenderTimeout: 10 * time.Second,
		Step:          view.DefaultStep,
		Initial:       view.Default(),
		LogFile:       "pointview.log",
	}
}

// Load reads the file at path over the defaults and applies environment
// overrides. An empty path skips the file; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("POINTVIEW_ORIGIN"); v != "" {
		c.Origin = v
	}
	if v := getenv("POINTVIEW_RENDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POINTVIEW_RENDER_TIMEOUT: %w", err)
		}
		c.RenderTimeout = d
	}
	if v, ok := lookup(getenv, "POINTVIEW_LOG_FILE"); ok {
		c.LogFile = v
	}
	if v := getenv("POINTVIEW_DATASET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POINTVIEW_DATASET: %w", err)
		}
		c.Dataset = n
	}
	return nil
}

// lookup treats "-" as an explicit empty value so logging can be disabled
// from the environment.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	if v == "" {
		return "", false
	}
	if v == "-" {
		return "", true
	}
	return v, true
}

func (c Config) Validate() error {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin %q: scheme must be http or https", c.Origin)
	}
	if u.Host == "" {
		return fmt.Errorf("origin %q: missing host", c.Origin)
	}
	if c.RenderTimeout <= 0 {
		return errors.New("render_timeout must be positive")
	}
	if c.Step <= 0 {
		return errors.New("step must be positive")
	}
	if !c.Initial.Valid() {
		return errors.New("initial view parameters must be finite")
	}
	if c.Dataset < 0 {
		return errors.New("dataset index must not be negative")
	}
	if c.PointsPath == "" || c.RenderPath == "" {
		return errors.New("points_path and render_path are required")
	}
	return nil
}

// URL joins p onto the origin, collapsing the slash between them.
func (c Config) URL(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	u, err := url.JoinPath(c.Origin, p)
	if err != nil {
		return strings.TrimSuffix(c.Origin, "/") + "/" + strings.TrimPrefix(p, "/")
	}
	return u
}

func (c Config) PointsURL() string   { return c.URL(c.PointsPath) }
func (c Config) RenderURL() string   { return c.URL(c.RenderPath) }
func (c Config) FallbackURL() string { return c.URL(c.FallbackPath) }
