// Package school implements a small Boids flock of decorative fish that roam
// the world together, steer clear of the walls and sanctuary zones, and turn
// only in smooth arcs.
package school

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSpecies is returned for a species tag that is not registered.
var ErrUnknownSpecies = errors.New("school: unknown species")

// Species holds the flocking parameters of one kind of fish.
type Species struct {
	Name string `yaml:"-" json:"name"`

	MaxSpeed    float64 `yaml:"max_speed" json:"max_speed"`
	CruiseSpeed float64 `yaml:"cruise_speed" json:"cruise_speed"`

	SeparationRadius float64 `yaml:"separation_radius" json:"separation_radius"`
	AlignmentRadius  float64 `yaml:"alignment_radius" json:"alignment_radius"`
	CohesionRadius   float64 `yaml:"cohesion_radius" json:"cohesion_radius"`

	SeparationWeight float64 `yaml:"separation_weight" json:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight" json:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight" json:"cohesion_weight"`

	TurnSpeed      float64 `yaml:"turn_speed" json:"turn_speed"` // rad/s
	WanderStrength float64 `yaml:"wander_strength" json:"wander_strength"`
	Tight          bool    `yaml:"school_tight" json:"school_tight"`
}

// Built-in species.
const (
	NeonTetra = "neon_tetra"
	Discus    = "discus"
	Betta     = "betta"
)

// DefaultSpecies is used when nothing else is configured.
const DefaultSpecies = NeonTetra

var builtin = map[string]Species{
	NeonTetra: {
		Name:     NeonTetra,
		MaxSpeed: 100, CruiseSpeed: 45,
		SeparationRadius: 25, AlignmentRadius: 80, CohesionRadius: 120,
		SeparationWeight: 2.5, AlignmentWeight: 1.2, CohesionWeight: 0.8,
		TurnSpeed: 3.0, WanderStrength: 8, Tight: true,
	},
	Discus: {
		Name:     Discus,
		MaxSpeed: 65, CruiseSpeed: 28,
		SeparationRadius: 50, AlignmentRadius: 100, CohesionRadius: 160,
		SeparationWeight: 3.0, AlignmentWeight: 0.8, CohesionWeight: 0.6,
		TurnSpeed: 2.0, WanderStrength: 5,
	},
	Betta: {
		Name:     Betta,
		MaxSpeed: 80, CruiseSpeed: 35,
		SeparationRadius: 80, AlignmentRadius: 60, CohesionRadius: 100,
		SeparationWeight: 5.0, AlignmentWeight: 0.3, CohesionWeight: 0.2,
		TurnSpeed: 2.5, WanderStrength: 12,
	},
}

// Registry maps species tags to parameters. The zero value is not usable;
// use NewRegistry.
type Registry struct {
	species map[string]Species
}

// NewRegistry returns a registry holding the built-in species.
func NewRegistry() *Registry {
	r := &Registry{species: make(map[string]Species, len(builtin))}
	for k, v := range builtin {
		r.species[k] = v
	}
	return r
}

// Lookup returns the parameters for tag.
func (r *Registry) Lookup(tag string) (Species, error) {
	s, ok := r.species[tag]
	if !ok {
		return Species{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, tag)
	}
	return s, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	_, ok := r.species[tag]
	return ok
}

// Names returns the registered tags in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.species))
	for k := range r.species {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Set registers or replaces a species. It rejects parameters that would make
// the flock misbehave.
func (r *Registry) Set(tag string, s Species) error {
	if tag == "" {
		return fmt.Errorf("school: empty species tag")
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("species %q: %w", tag, err)
	}
	s.Name = tag
	r.species[tag] = s
	return nil
}

// Validate checks that speeds, radii and turn rate are usable.
func (s Species) Validate() error {
	switch {
	case !(s.MaxSpeed > 0):
		return errors.New("max_speed must be positive")
	case s.CruiseSpeed < 0 || s.CruiseSpeed > s.MaxSpeed:
		return errors.New("cruise_speed must be within [0, max_speed]")
	case s.SeparationRadius < 0 || s.AlignmentRadius < 0 || s.CohesionRadius < 0:
		return errors.New("radii must not be negative")
	case s.SeparationWeight < 0 || s.AlignmentWeight < 0 || s.CohesionWeight < 0:
		return errors.New("weights must not be negative")
	case !(s.TurnSpeed > 0):
		return errors.New("turn_speed must be positive")
	case s.WanderStrength < 0:
		return errors.New("wander_strength must not be negative")
	}
	return nil
}

// Lookup finds a built-in species.
func Lookup(tag string) (Species, error) {
	s, ok := builtin[tag]
	if !ok {
		return Species{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, tag)
	}
	return s, nil
}
