// Package canvas maps pointer positions from viewport space into canvas space.
package canvas

import "github.com/dukex/operion-designer/pkg/models"

// DefaultNodeHalfSize centres a dropped node on the pointer.
var DefaultNodeHalfSize = Size{Width: 75, Height: 30}

// Point is a position in viewport (screen) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame describes where the canvas element sits in the viewport and how big
// a node is.
type Frame struct {
	Origin       Point `json:"origin"`
	NodeHalfSize Size  `json:"node_half_size"`
}

// DefaultFrame is a canvas anchored at the viewport origin.
func DefaultFrame() Frame {
	return Frame{NodeHalfSize: DefaultNodeHalfSize}
}

// ToCanvas subtracts the canvas origin and the node centring offset from a
// viewport position. The result is not clamped to the canvas bounds.
func ToCanvas(viewport, origin Point, half Size) models.Position {
	return models.Position{
		X: viewport.X - origin.X - half.Width,
		Y: viewport.Y - origin.Y - half.Height,
	}
}

// ToCanvas maps a viewport position using the frame's origin and node size.
func (f Frame) ToCanvas(viewport Point) models.Position {
	return ToCanvas(viewport, f.Origin, f.NodeHalfSize)
}
