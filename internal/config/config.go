// Package config loads the InkBoard settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"InkBoard/internal/controller"
	"InkBoard/internal/split"
	"InkBoard/internal/tools"
)

var (
	ErrUnknownMode  = errors.New("unknown operation mode")
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidValue = errors.New("invalid value")
)

// Config is the content of the settings file. Missing keys keep their
// defaults.
type Config struct {
	Mode       string `toml:"mode"`
	VectorTool string `toml:"vector_tool"`
	RasterTool string `toml:"raster_tool"`
	Color      string `toml:"color"`

	DiscardOverlapped bool    `toml:"discard_overlapped"`
	OverlapMargin     float64 `toml:"overlap_margin"`
	EraserSize        float64 `toml:"eraser_size"`
	Predict           bool    `toml:"predict"`

	Port      int    `toml:"port"`
	Discovery bool   `toml:"discovery"`
	LogLevel  string `toml:"log_level"`

	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Mode:          controller.VectorDrawing.String(),
		VectorTool:    tools.BallPenURI,
		RasterTool:    tools.PencilURI,
		Color:         "#1a1a1a",
		OverlapMargin: 0.5,
		EraserSize:    12,
		Predict:       true,
		Port:          8888,
		Discovery:     true,
		LogLevel:      "info",
		Width:         1024,
		Height:        768,
	}
}

// Load reads the file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML settings over the defaults and validates them.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("decode config at %d:%d: %w", row, col, err)
		}
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field that cannot be checked by decoding.
func (c Config) Validate() error {
	if _, ok := controller.ParseMode(c.Mode); !ok {
		return fmt.Errorf("%w %q", ErrUnknownMode, c.Mode)
	}
	if _, err := ParseColor(c.Color); err != nil {
		return err
	}
	reg := tools.DefaultRegistry()
	for _, uri := range []string{c.VectorTool, c.RasterTool} {
		if _, err := reg.Lookup(uri); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	switch {
	case c.OverlapMargin < 0:
		return fmt.Errorf("%w: overlap_margin %v", ErrInvalidValue, c.OverlapMargin)
	case c.EraserSize <= 0:
		return fmt.Errorf("%w: eraser_size %v", ErrInvalidValue, c.EraserSize)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidValue, c.Port)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidValue, c.Width, c.Height)
	}
	return nil
}

// Options converts the settings into controller options.
func (c Config) Options() (controller.Options, error) {
	opts := controller.DefaultOptions()
	mode, ok := controller.ParseMode(c.Mode)
	if !ok {
		return opts, fmt.Errorf("%w %q", ErrUnknownMode, c.Mode)
	}
	col, err := ParseColor(c.Color)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.VectorTool = c.VectorTool
	opts.RasterTool = c.RasterTool
	opts.Color = col
	opts.Split = split.Options{DiscardOverlapped: c.DiscardOverlapped, OverlapMargin: c.OverlapMargin}
	opts.EraserSize = c.EraserSize
	opts.Predict = c.Predict
	return opts, nil
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor is the inverse of ParseColor.
func FormatColor(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Save writes c as TOML to path.
func Save(c Config, path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
