package main

import (
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/school"
)

// ParamSpec defines a single tunable species parameter.
type ParamSpec struct {
	Name string // column name in the log
	Min  float64
	Max  float64

	field func(*school.Species) *float64
}

// ParamVector holds the tunable flocking parameters of one species.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of flocking parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Weights
			{Name: "separation_weight", Min: 0.5, Max: 6, field: func(s *school.Species) *float64 { return &s.SeparationWeight }},
			{Name: "alignment_weight", Min: 0.1, Max: 3, field: func(s *school.Species) *float64 { return &s.AlignmentWeight }},
			{Name: "cohesion_weight", Min: 0.1, Max: 3, field: func(s *school.Species) *float64 { return &s.CohesionWeight }},
			// Radii
			{Name: "separation_radius", Min: 10, Max: 100, field: func(s *school.Species) *float64 { return &s.SeparationRadius }},
			{Name: "alignment_radius", Min: 30, Max: 200, field: func(s *school.Species) *float64 { return &s.AlignmentRadius }},
			{Name: "cohesion_radius", Min: 50, Max: 300, field: func(s *school.Species) *float64 { return &s.CohesionRadius }},
			{Name: "wander_strength", Min: 0, Max: 20, field: func(s *school.Species) *float64 { return &s.WanderStrength }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Names returns the parameter names in vector order.
func (pv *ParamVector) Names() []string {
	names := make([]string, len(pv.Specs))
	for i, spec := range pv.Specs {
		names[i] = spec.Name
	}
	return names
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = geom.Clamp(v[i], spec.Min, spec.Max)
	}
	return clamped
}

// Apply returns a copy of sp with the clamped values written in.
func (pv *ParamVector) Apply(sp school.Species, values []float64) school.Species {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		*spec.field(&sp) = clamped[i]
	}
	return sp
}

// Extract reads the current parameter values from sp.
func (pv *ParamVector) Extract(sp school.Species) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(&sp)
	}
	return v
}

// ApplyToConfig stores the tuned species as an override in cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, tag string, base school.Species, values []float64) {
	if cfg.Species == nil {
		cfg.Species = make(config.SpeciesOverrides)
	}
	cfg.Species[tag] = pv.Apply(base, values)
}
