// Package raster draws overlay regions to images.
package raster

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/gogpu/gg"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Snapshot implements the interface.
var _ driven.OverlayRasteriser = (*Snapshot)(nil)

// maxSide bounds the image so a bad width cannot allocate gigabytes.
const maxSide = 8192

// Snapshot composites regions onto a white page with the software
// renderer and encodes the result as PNG.
type Snapshot struct {
	// Background fills the page before any region is drawn.
	Background string

	// BorderWidth is the outline width for bordered and selected regions.
	BorderWidth float64
}

// NewSnapshot creates a rasteriser with a white background.
func NewSnapshot() *Snapshot {
	return &Snapshot{Background: "#ffffff", BorderWidth: 1}
}

// WritePNG draws regions in Z order over a page-sized canvas.
func (s *Snapshot) WritePNG(w io.Writer, page domain.Box, regions []domain.Region) error {
	width, height := int(math.Ceil(page.Width)), int(math.Ceil(page.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: page box %vx%v", domain.ErrValidation, page.Width, page.Height)
	}
	if width > maxSide || height > maxSide {
		return fmt.Errorf("%w: page box %dx%d exceeds %d", domain.ErrValidation, width, height, maxSide)
	}

	dc := gg.NewContext(width, height)
	defer dc.Close()
	dc.ClearWithColor(gg.Hex(s.Background))

	ordered := make([]domain.Region, len(regions))
	copy(ordered, regions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Z < ordered[j].Z })

	for _, r := range ordered {
		if err := s.draw(dc, page, r); err != nil {
			return fmt.Errorf("draw region %s: %w", r.AnchorID, err)
		}
	}

	return dc.EncodePNG(w)
}

func (s *Snapshot) draw(dc *gg.Context, page domain.Box, r domain.Region) error {
	if r.Box.Empty() {
		return nil
	}
	col := gg.Hex(r.Color)
	x, y := r.Box.Left-page.Left, r.Box.Top-page.Top

	dc.SetRGBA(col.R, col.G, col.B, r.Alpha)
	dc.DrawRectangle(x, y, r.Box.Width, r.Box.Height)
	if err := dc.Fill(); err != nil {
		return err
	}

	if !r.Bordered && !r.Selected {
		return nil
	}
	lw := s.BorderWidth
	if r.Selected {
		lw *= 2
	}
	dc.SetRGBA(col.R, col.G, col.B, 1)
	dc.SetLineWidth(lw)
	dc.DrawRectangle(x, y, r.Box.Width, r.Box.Height)
	return dc.Stroke()
}
