package visualization

import (
	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/physics"
	"github.com/dd0wney/cluso-socialgraph/pkg/reveal"
)

// Position represents a 2D coordinate
type Position = physics.Vec

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 `yaml:"width" json:"width" validate:"gt=0"`
	Height     float64 `yaml:"height" json:"height" validate:"gt=0"`
	Iterations int     `yaml:"iterations" json:"iterations" validate:"gte=0"` // headless ticks for the stable pre-pass
	Padding    float64 `yaml:"padding" json:"padding" validate:"gte=0"`

	Settings Settings      `yaml:"settings" json:"settings"`
	Reveal   reveal.Timing `yaml:"reveal" json:"reveal"`
}

// DefaultLayoutConfig returns an 800x600 canvas with default settings.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Width:      800,
		Height:     600,
		Iterations: 300,
		Padding:    50,
		Settings:   DefaultSettings(),
		Reveal:     reveal.DefaultTiming(),
	}
}

func (c *LayoutConfig) applyDefaults() {
	d := DefaultLayoutConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Iterations == 0 {
		c.Iterations = d.Iterations
	}
	if c.Padding == 0 {
		c.Padding = d.Padding
	}
	if c.Settings.RepulsionStrength == 0 {
		c.Settings.RepulsionStrength = d.Settings.RepulsionStrength
	}
	if c.Settings.LinkDistance == 0 {
		c.Settings.LinkDistance = d.Settings.LinkDistance
	}
	if c.Settings.NodeSizeMode == "" {
		c.Settings.NodeSizeMode = d.Settings.NodeSizeMode
	}
	if c.Reveal == (reveal.Timing{}) {
		c.Reveal = d.Reveal
	}
}

// params converts the canvas and settings into force parameters.
func (c *LayoutConfig) params() physics.Params {
	p := physics.DefaultParams(c.Width, c.Height)
	p.RepulsionStrength = c.Settings.RepulsionStrength
	p.LinkDistance = c.Settings.LinkDistance
	return p
}

// Layout interface for different layout algorithms
type Layout interface {
	ComputeLayout(nodeIDs []uint64, edges []algorithms.EdgeRef) (map[uint64]Position, error)
}
