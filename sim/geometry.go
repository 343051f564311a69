package sim

import (
	"fmt"
	"math"
)

// Point is a simulation coordinate. Positions only matter for transport timing
// (arrival detection); everything else about them is presentation.
type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Route is the cached unit direction and length from the generator to a server.
// A zero-length route has direction (0, 0) and Distance 0.
type Route struct {
	DirX     float64
	DirY     float64
	Distance float64
}

// NewRoute computes the normalized direction from `from` to `to`.
func NewRoute(from, to Point) Route {
	dx := to.X - from.X
	dy := to.Y - from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Route{}
	}
	return Route{DirX: dx / length, DirY: dy / length, Distance: length}
}

// GridCenter converts a grid cell span into the pixel center of that span.
// Layout is static configuration; the engine only needs the resulting centers.
func GridCenter(col, row, widthCells, heightCells int, cellWidth, cellHeight float64) Point {
	x := float64(col) * cellWidth
	y := float64(row) * cellHeight
	return Point{
		X: x + float64(widthCells)*cellWidth/2,
		Y: y + float64(heightCells)*cellHeight/2,
	}
}
