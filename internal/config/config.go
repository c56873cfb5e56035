package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type ViewCfg struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	HFOVDeg float64 `yaml:"hfov_deg"` // assumed camera horizontal field of view
}

type PreviewCfg struct {
	Enabled  *bool `yaml:"enabled,omitempty"`
	MaxWidth int   `yaml:"max_width"` // preview frames are downscaled to this width
}

type DemoCfg struct {
	Enabled     bool    `yaml:"enabled"`
	ClipSeconds float64 `yaml:"clip_seconds"`
}

type Config struct {
	Age    int    `yaml:"age"` // developmental stage key, months
	FPS    int    `yaml:"fps"`
	Source string `yaml:"source"` // drift | gray | edge | image path
	Addr   string `yaml:"addr"`   // HTTP/websocket listen address

	// Toggles are pointers so a file that omits them leaves the flag
	// defaults in place instead of silently forcing false.
	Mirror   *bool `yaml:"mirror,omitempty"`
	Vignette *bool `yaml:"vignette,omitempty"`
	Temporal *bool `yaml:"temporal,omitempty"`

	View    ViewCfg    `yaml:"view"`
	Preview PreviewCfg `yaml:"preview"`
	Demo    DemoCfg    `yaml:"demo"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
