package capture

import "github.com/junsooki/cellframe/internal/dimensions"

// Axis is one coordinate translated into buffer-relative space. Valid is
// false when the absolute coordinate falls outside the captured region.
type Axis struct {
	Value int
	Valid bool
}

// ToRelative converts absolute surface coordinates into coordinates relative
// to sub. Each axis is checked against [origin, origin+extent) on its own, so
// one axis can resolve while the other does not.
func ToRelative(sub dimensions.Rect, x, y int) (Axis, Axis) {
	var rx, ry Axis
	if x >= sub.Left && x < sub.Right() {
		rx = Axis{Value: x - sub.Left, Valid: true}
	}
	if y >= sub.Top && y < sub.Bottom() {
		ry = Axis{Value: y - sub.Top, Valid: true}
	}
	return rx, ry
}
