package domain

import (
	"math"
	"sort"
)

// RectEpsilon is the tolerance allowed past the page edge for a normalised rect.
const RectEpsilon = 1e-3

// Point is a position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned rectangle in pixels, relative to some origin
// (the viewport for raw selections, the page for overlay regions).
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.Left + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Top + b.Height }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Contains reports whether p lies inside the box (edges inclusive).
func (b Box) Contains(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right() && p.Y >= b.Top && p.Y <= b.Bottom()
}

// ContainsBox reports whether o lies within b, allowing slack pixels of overhang.
func (b Box) ContainsBox(o Box, slack float64) bool {
	return o.Left >= b.Left-slack && o.Top >= b.Top-slack &&
		o.Right() <= b.Right()+slack && o.Bottom() <= b.Bottom()+slack
}

// NormalizedRect is a rectangle expressed as fractions of page width and height.
type NormalizedRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Valid reports whether the rect lies on the unit page.
func (r NormalizedRect) Valid() bool {
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 {
		return false
	}
	return r.X+r.W <= 1+RectEpsilon && r.Y+r.H <= 1+RectEpsilon
}

// Contains reports whether the fractional point (x, y) lies inside the rect.
func (r NormalizedRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Normalize converts container-relative pixel rects to page fractions.
// Degenerate rects are dropped and the result is ordered top-to-bottom,
// then left-to-right. A container that has not been laid out yet
// (zero width or height) yields an empty list.
func Normalize(container Box, raw []Box) []NormalizedRect {
	if container.Width <= 0 || container.Height <= 0 {
		return nil
	}

	rects := make([]NormalizedRect, 0, len(raw))
	for _, b := range raw {
		if b.Empty() {
			continue
		}
		r := clipUnit(NormalizedRect{
			X: (b.Left - container.Left) / container.Width,
			Y: (b.Top - container.Top) / container.Height,
			W: b.Width / container.Width,
			H: b.Height / container.Height,
		})
		if !r.Valid() {
			continue
		}
		rects = append(rects, r)
	}

	SortRects(rects)
	return rects
}

// Denormalize maps a normalised rect back onto a rendered page box.
func Denormalize(r NormalizedRect, page Box) Box {
	return Box{
		Left:   page.Left + r.X*page.Width,
		Top:    page.Top + r.Y*page.Height,
		Width:  r.W * page.Width,
		Height: r.H * page.Height,
	}
}

// SortRects orders rects top-to-bottom, then left-to-right.
func SortRects(rects []NormalizedRect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
}

// clipUnit trims the parts of r that spill past the unit square.
func clipUnit(r NormalizedRect) NormalizedRect {
	left := math.Max(r.X, 0)
	top := math.Max(r.Y, 0)
	right := math.Min(r.X+r.W, 1)
	bottom := math.Min(r.Y+r.H, 1)
	return NormalizedRect{X: left, Y: top, W: right - left, H: bottom - top}
}
