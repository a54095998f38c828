package viewer

import "github.com/custodia-labs/marginalia/internal/core/domain"

// Region alphas.
const (
	HighlightAlpha = 0.35
	SelectedAlpha  = 0.4
	MemoAlpha      = 0.15
)

// DraftZ places the live draft above every stored annotation.
const DraftZ = 1 << 30

// Project converts a page's annotations into drawable regions on the page
// box: one region per (anchor, rect). Later anchors get higher Z and paint
// over earlier ones. Page-level bundles, and rect anchors left with
// neither a highlight nor a note, draw nothing. Rects outside the unit
// square or with no area are skipped.
func Project(set *domain.PageAnnotationSet, page domain.Box, selected string) []domain.Region {
	if set == nil || page.Empty() {
		return nil
	}

	var regions []domain.Region
	for i := range set.Items {
		b := &set.Items[i]
		isSelected := selected != "" && b.Anchor.ID == selected

		var base domain.Region
		switch b.Kind() {
		case domain.BundlePageLevel:
			continue
		case domain.BundleHighlight:
			base = domain.Region{Kind: domain.RegionHighlight, Color: b.Highlight().Color, Alpha: HighlightAlpha}
			if isSelected {
				base.Alpha = SelectedAlpha
			}
		case domain.BundleMemo:
			if len(b.Memos) == 0 {
				continue
			}
			base = domain.Region{Kind: domain.RegionMemo, Color: domain.MemoColor, Alpha: MemoAlpha, Bordered: true}
		}
		base.AnchorID = b.Anchor.ID
		base.Selected = isSelected

		for _, r := range b.Anchor.Rects {
			if !r.Valid() {
				continue
			}
			region := base
			region.Box = domain.Denormalize(r, page)
			region.Z = len(regions)
			regions = append(regions, region)
		}
	}
	return regions
}

// ProjectDraft draws a selection draft as a pending highlight in the
// default colour and returns the toolbar position in page pixels.
func ProjectDraft(draft *domain.SelectionDraft, page domain.Box) ([]domain.Region, domain.Point) {
	if draft == nil || page.Empty() {
		return nil, domain.Point{}
	}

	regions := make([]domain.Region, 0, len(draft.Rects))
	for _, r := range draft.Rects {
		regions = append(regions, domain.Region{
			Kind:  domain.RegionDraft,
			Box:   domain.Denormalize(r, page),
			Color: domain.DefaultHighlightColor,
			Alpha: HighlightAlpha,
			Z:     DraftZ,
		})
	}
	toolbar := domain.Point{X: page.Left + draft.Toolbar.X, Y: page.Top + draft.Toolbar.Y}
	return regions, toolbar
}

// HitTest returns the top-most region containing pt. Among regions with
// equal Z the later one wins.
func HitTest(regions []domain.Region, pt domain.Point) (domain.Region, bool) {
	best := -1
	for i := range regions {
		if !regions[i].Box.Contains(pt) {
			continue
		}
		if best < 0 || regions[i].Z >= regions[best].Z {
			best = i
		}
	}
	if best < 0 {
		return domain.Region{}, false
	}
	return regions[best], true
}
