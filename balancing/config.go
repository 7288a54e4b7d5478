package balancing

import (
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The YAML-facing shapes, converted to the runtime types after parsing.
type settingsConfig struct {
	Enabled     bool                     `yaml:"enabled"`
	Constraints constraintsConfig        `yaml:"constraints"`
	Objects     map[string]objectConfig  `yaml:"objects"`
	Contacts    []contactConfig          `yaml:"contacts"`
	Mode        string                   `yaml:"mode"`
	Mu          float64                  `yaml:"mu"`
	Delta       float64                  `yaml:"delta"`
	Gravity     []float64                `yaml:"gravity"`
}

type constraintsConfig struct {
	NormalForce  bool `yaml:"normal_force"`
	FrictionCone bool `yaml:"friction_cone"`
	SupportArea  bool `yaml:"support_area"`
}

type objectConfig struct {
	Mass           float64     `yaml:"mass"`
	CoM            []float64   `yaml:"com"`
	SupportPolygon [][]float64 `yaml:"support_polygon"`
	Friction       float64     `yaml:"friction"`
}

type contactConfig struct {
	Object   string    `yaml:"object"`
	Position []float64 `yaml:"position"`
	Normal   []float64 `yaml:"normal"`
	Friction float64   `yaml:"friction"`
}

func vector3(raw []float64, what string) (r3.Vector, error) {
	switch len(raw) {
	case 0:
		return r3.Vector{}, nil
	case 3:
		return r3.Vector{X: raw[0], Y: raw[1], Z: raw[2]}, nil
	default:
		return r3.Vector{}, errors.Errorf("%s must have 3 components, got %d", what, len(raw))
	}
}

// ParseSettings decodes YAML settings and validates them.
func ParseSettings(data []byte) (*Settings, error) {
	var cfg settingsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal balancing settings")
	}

	settings := &Settings{
		Enabled: cfg.Enabled,
		Constraints: ConstraintsEnabled{
			NormalForce:  cfg.Constraints.NormalForce,
			FrictionCone: cfg.Constraints.FrictionCone,
			SupportArea:  cfg.Constraints.SupportArea,
		},
		Objects: map[string]BalancedObject{},
		Mode:    ConstraintMode(cfg.Mode),
		Mu:      cfg.Mu,
		Delta:   cfg.Delta,
	}
	if settings.Mode == "" {
		settings.Mode = ModeSoft
	}
	if settings.Mu == 0 {
		settings.Mu = DefaultMu
	}
	if settings.Delta == 0 {
		settings.Delta = DefaultDelta
	}

	gravity, err := vector3(cfg.Gravity, "gravity")
	if err != nil {
		return nil, err
	}
	settings.Gravity = gravity

	for name, objCfg := range cfg.Objects {
		com, err := vector3(objCfg.CoM, "object "+name+" com")
		if err != nil {
			return nil, err
		}
		obj := BalancedObject{
			Mass:     objCfg.Mass,
			CoM:      com,
			Friction: objCfg.Friction,
		}
		for i, vertex := range objCfg.SupportPolygon {
			if len(vertex) != 2 {
				return nil, errors.Errorf(
					"object %q support polygon vertex %d must have 2 components, got %d",
					name, i, len(vertex))
			}
			obj.SupportPolygon = append(obj.SupportPolygon, r2.Point{X: vertex[0], Y: vertex[1]})
		}
		settings.Objects[name] = obj
	}

	for _, contactCfg := range cfg.Contacts {
		position, err := vector3(contactCfg.Position, "contact position")
		if err != nil {
			return nil, err
		}
		normal, err := vector3(contactCfg.Normal, "contact normal")
		if err != nil {
			return nil, err
		}
		settings.Contacts = append(settings.Contacts, ContactPoint{
			Object:   contactCfg.Object,
			Position: position,
			Normal:   normal,
			Friction: contactCfg.Friction,
		})
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// LoadSettings reads and parses a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read balancing settings file")
	}
	return ParseSettings(data)
}
