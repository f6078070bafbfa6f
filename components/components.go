// Package components defines ECS components for world objects that are too
// numerous or short-lived to model as agents, currently food pellets.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Fall is the vertical motion of a sinking object.
type Fall struct {
	VY      float64 // px/s, positive is down
	Settled bool    // resting on the floor
}

// Pellet marks a food pellet.
type Pellet struct {
	ID   uint32
	Born float64 // simulation time of creation, s
}
