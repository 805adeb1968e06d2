package visualization

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Intensity is the strength category of a relationship.
type Intensity string

const (
	IntensityHidden       Intensity = "hidden"
	IntensityAcquaintance Intensity = "acquaintance"
	IntensityFriend       Intensity = "friend"
	IntensityClose        Intensity = "close"
	IntensityPartner      Intensity = "partner"
)

// ParseIntensity parses a relationship intensity, case-insensitively.
func ParseIntensity(s string) (Intensity, error) {
	switch i := Intensity(strings.ToLower(strings.TrimSpace(s))); i {
	case IntensityHidden, IntensityAcquaintance, IntensityFriend, IntensityClose, IntensityPartner:
		return i, nil
	default:
		return "", errors.Newf("unknown relationship intensity %q", s)
	}
}

// Rendered reports whether edges of this intensity are drawn. Hidden edges
// still take part in metrics and forces.
func (i Intensity) Rendered() bool {
	return i != IntensityHidden
}

// SizeMode selects which metric drives node size.
type SizeMode string

const (
	SizeByConnections SizeMode = "connections"
	SizeByBetweenness SizeMode = "betweenness"
	SizeByBoth        SizeMode = "both"
)

// ParseSizeMode parses a node size mode.
func ParseSizeMode(s string) (SizeMode, error) {
	switch m := SizeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SizeByConnections, SizeByBetweenness, SizeByBoth:
		return m, nil
	default:
		return "", errors.Newf("unknown node size mode %q", s)
	}
}

// Settings are the user-adjustable layout knobs. Values are used as given;
// callers clamp them to sane ranges.
type Settings struct {
	RepulsionStrength float64  `yaml:"repulsion_strength" json:"repulsion_strength" validate:"gte=0,lte=10000"`
	LinkDistance      float64  `yaml:"link_distance" json:"link_distance" validate:"gte=10,lte=500"`
	NodeSizeMode      SizeMode `yaml:"node_size_mode" json:"node_size_mode" validate:"oneof=connections betweenness both"`
}

// DefaultSettings returns the starting layout settings.
func DefaultSettings() Settings {
	return Settings{
		RepulsionStrength: 1200,
		LinkDistance:      80,
		NodeSizeMode:      SizeByBoth,
	}
}

// NodeInput is a person as delivered by the data layer.
type NodeInput struct {
	ID    uint64 `yaml:"id" json:"id" validate:"required"`
	Label string `yaml:"name" json:"name" validate:"max=200"`
}

// EdgeInput is a relationship as delivered by the data layer.
type EdgeInput struct {
	ID        uint64    `yaml:"id" json:"id" validate:"required"`
	Person1ID uint64    `yaml:"person1_id" json:"person1_id" validate:"required"`
	Person2ID uint64    `yaml:"person2_id" json:"person2_id" validate:"required"`
	Intensity Intensity `yaml:"intensity" json:"intensity" validate:"omitempty,oneof=hidden acquaintance friend close partner"`
	Pending   bool      `yaml:"pending" json:"pending"`
}
