package pid

import (
	"fmt"
	"math"
)

// Polygon is a closed graphical cut. The last vertex connects back to the
// first one; a repeated closing vertex is harmless.
type Polygon struct {
	Name string
	X    []float64
	Y    []float64
}

func NewPolygon(name string, x, y []float64) (*Polygon, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("polygon %s: %d x values for %d y values", name, len(x), len(y))
	}
	if len(x) < 3 {
		return nil, fmt.Errorf("polygon %s: need at least 3 vertices, got %d", name, len(x))
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return nil, fmt.Errorf("polygon %s: vertex %d is NaN", name, i)
		}
	}
	return &Polygon{Name: name, X: x, Y: y}, nil
}

// IsInside uses the even-odd crossing rule with a ray towards -x, the same
// convention as TCutG::IsInside, so points sitting on an edge are
// classified identically to the tools the cuts were drawn with.
func (p *Polygon) IsInside(x, y float64) bool {
	if p == nil || math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	n := len(p.X)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		yi, yj := p.Y[i], p.Y[j]
		if (yi < y && yj >= y) || (yj < y && yi >= y) {
			xCross := p.X[i] + (y-yi)/(yj-yi)*(p.X[j]-p.X[i])
			if xCross < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
