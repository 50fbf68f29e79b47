package geometry

// Rect describes a rectangular region in screen coordinates.
// The origin is the top-left corner with Y increasing downward.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size describes width/height constraints for a window.
// A zero value means "unconstrained" for that dimension.
type Size struct {
	Width  int
	Height int
}

// Axis selects which dimension of a rectangle is being divided.
type Axis int

const (
	// Horizontal divides a rectangle into side-by-side strips (varying X).
	Horizontal Axis = iota
	// Vertical divides a rectangle into stacked strips (varying Y).
	Vertical
)

// Right returns the exclusive right edge coordinate.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge coordinate.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether the point (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersect returns the overlapping region of a and b. A zero-area Rect is
// returned when they do not overlap.
func Intersect(a, b Rect) Rect {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.Right(), b.Right())
	y2 := min(a.Bottom(), b.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Area returns the pixel area of r.
func (r Rect) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// SplitRects divides container along axis into one strip per proportion.
// Each strip spans the full container extent on the orthogonal axis.
//
// The last strip is not sized from its proportion: it is sized as the
// remaining distance to the container's far edge. Cumulative rounding from
// the earlier strips would otherwise leave a seam or overlap at the far
// edge, so the asymmetry is required for exact tiling.
func SplitRects(container Rect, proportions []float64, axis Axis) []Rect {
	if len(proportions) == 0 {
		return nil
	}

	rects := make([]Rect, len(proportions))

	switch axis {
	case Horizontal:
		cursor := container.X
		for i, p := range proportions {
			w := int(p * float64(container.Width))
			if i == len(proportions)-1 {
				w = container.Right() - cursor
			}
			rects[i] = Rect{X: cursor, Y: container.Y, Width: w, Height: container.Height}
			cursor += w
		}
	case Vertical:
		cursor := container.Y
		for i, p := range proportions {
			h := int(p * float64(container.Height))
			if i == len(proportions)-1 {
				h = container.Bottom() - cursor
			}
			rects[i] = Rect{X: container.X, Y: cursor, Width: container.Width, Height: h}
			cursor += h
		}
	}

	return rects
}

// ClampRect constrains r's width and height into [minSize, maxSize]
// independently per dimension (zero bounds are ignored).
//
// When clamping shrinks a rect that is the last element along an axis, its
// origin is shifted so the trailing edge stays flush with where it was. A
// shrunk non-last rect keeps its origin; the resulting gap is visible rather
// than silently shifting a neighbor.
func ClampRect(r Rect, minSize, maxSize Size, lastH, lastV bool) Rect {
	out := r

	if minSize.Width > 0 && out.Width < minSize.Width {
		out.Width = minSize.Width
	}
	if maxSize.Width > 0 && out.Width > maxSize.Width {
		out.Width = maxSize.Width
	}
	if minSize.Height > 0 && out.Height < minSize.Height {
		out.Height = minSize.Height
	}
	if maxSize.Height > 0 && out.Height > maxSize.Height {
		out.Height = maxSize.Height
	}

	if out.Width < r.Width && lastH {
		out.X = r.Right() - out.Width
	}
	if out.Height < r.Height && lastV {
		out.Y = r.Bottom() - out.Height
	}

	return out
}
