package fixedmath

// Point is a deterministic 2D point/vector.
type Point struct {
	X, Y Scalar
}

// PointFromInt builds a Point from whole-number coordinates.
func PointFromInt(x, y int64) Point {
	return Point{X: FromInt(x), Y: FromInt(y)}
}

func (p Point) Add(o Point) Point { return Point{p.X.Add(o.X), p.Y.Add(o.Y)} }
func (p Point) Sub(o Point) Point { return Point{p.X.Sub(o.X), p.Y.Sub(o.Y)} }
func (p Point) Scale(s Scalar) Point {
	return Point{p.X.Mul(s), p.Y.Mul(s)}
}

func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}

// Rect is an axis-aligned rectangle in the same fixed-point space as Point.
type Rect struct {
	Min, Max Point
}

// Contains reports whether p lies within the closed rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X.Cmp(r.Min.X) >= 0 && p.X.Cmp(r.Max.X) <= 0 &&
		p.Y.Cmp(r.Min.Y) >= 0 && p.Y.Cmp(r.Max.Y) <= 0
}

// Clamp constrains p to lie within r.
func (r Rect) Clamp(p Point) Point {
	out := p
	if out.X.Cmp(r.Min.X) < 0 {
		out.X = r.Min.X
	} else if out.X.Cmp(r.Max.X) > 0 {
		out.X = r.Max.X
	}
	if out.Y.Cmp(r.Min.Y) < 0 {
		out.Y = r.Min.Y
	} else if out.Y.Cmp(r.Max.Y) > 0 {
		out.Y = r.Max.Y
	}
	return out
}
