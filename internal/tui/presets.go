package tui

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"pdf-viewer-plus/internal/domain"
)

// Preset is the [viewer] table of a preset file:
//
//	[viewer]
//	key = "page_nav_test"
//	width = "100%"
//	rendering = "unwrap"
//	zoom_step = 25
//	render_text = true
type Preset struct {
	Key        string  `toml:"key"`
	Width      *string `toml:"width"`
	Height     *string `toml:"height"`
	Rendering  string  `toml:"rendering"`
	ZoomStep   int     `toml:"zoom_step"`
	RenderText *bool   `toml:"render_text"`
}

type presetFile struct {
	Viewer Preset `toml:"viewer"`
}

// DefaultPreset shows the text layer and zooms in steps of 10.
func DefaultPreset() Preset {
	renderText := true
	return Preset{ZoomStep: domain.DefaultZoomStep, RenderText: &renderText}
}

// LoadPreset reads a preset file. Unknown keys are rejected the same way
// unknown viewer options are.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to read preset: %w", err)
	}
	return ParsePreset(data)
}

// ParsePreset decodes preset TOML on top of DefaultPreset.
func ParsePreset(data []byte) (Preset, error) {
	file := presetFile{Viewer: DefaultPreset()}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Preset{}, &domain.ValidationError{Field: "preset", Message: strict.String()}
		}
		return Preset{}, fmt.Errorf("failed to parse preset: %w", err)
	}
	if file.Viewer.ZoomStep < 0 {
		return Preset{}, &domain.ValidationError{Field: "zoom_step", Message: "must not be negative"}
	}
	return file.Viewer, nil
}

// ViewerOptions converts the preset into validated surface options. An absent
// dimension means unset; an empty one is invalid.
func (p Preset) ViewerOptions() (domain.ViewerOptions, error) {
	opts := domain.ViewerOptions{
		Key:       p.Key,
		Rendering: domain.RenderingMode(p.Rendering),
	}
	if p.RenderText != nil {
		opts.RenderText = *p.RenderText
	}
	if p.Width != nil {
		d, err := domain.ParseDimension(*p.Width)
		if err != nil {
			return domain.ViewerOptions{}, fmt.Errorf("width: %w", err)
		}
		opts.Width = &d
	}
	if p.Height != nil {
		d, err := domain.ParseDimension(*p.Height)
		if err != nil {
			return domain.ViewerOptions{}, fmt.Errorf("height: %w", err)
		}
		opts.Height = &d
	}
	if err := opts.Validate(); err != nil {
		return domain.ViewerOptions{}, err
	}
	return opts, nil
}

// Step returns the zoom step, falling back to the default.
func (p Preset) Step() int {
	if p.ZoomStep <= 0 {
		return domain.DefaultZoomStep
	}
	return p.ZoomStep
}
