package storage

import "kgq/internal/props"

// Node is one graph node in the uniform shape all scorers consume,
// regardless of how the backing store names its tables and columns.
type Node struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type,omitempty"`
	Properties props.Value `json:"properties,omitempty"`
}

// Edge is one directed graph edge in the uniform shape.
type Edge struct {
	ID         string      `json:"id,omitempty"`
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Type       string      `json:"type,omitempty"`
	Properties props.Value `json:"properties,omitempty"`
}

// Direction selects which edges a traversal follows.
type Direction string

const (
	// DirectionOut follows edges whose source is in the frontier.
	DirectionOut Direction = "out"
	// DirectionIn follows edges whose target is in the frontier.
	DirectionIn Direction = "in"
	// DirectionBoth follows edges in either orientation.
	DirectionBoth Direction = "both"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionOut, DirectionIn, DirectionBoth:
		return true
	}
	return false
}
