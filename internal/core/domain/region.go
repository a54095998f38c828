package domain

// RegionKind identifies how an overlay region is drawn.
type RegionKind string

const (
	// RegionHighlight is a filled box in the highlight's colour.
	RegionHighlight RegionKind = "highlight"

	// RegionMemo is a lighter bordered box for anchors with notes only.
	RegionMemo RegionKind = "memo"

	// RegionDraft is the live selection awaiting a decision.
	RegionDraft RegionKind = "draft"
)

// Region is one absolutely positioned, clickable overlay rectangle.
type Region struct {
	// AnchorID is empty for draft regions.
	AnchorID string `json:"anchorId,omitempty"`

	Kind RegionKind `json:"kind"`

	// Box is in page pixels.
	Box Box `json:"box"`

	// Color is a hex colour string.
	Color string `json:"color"`

	Alpha float64 `json:"alpha"`

	// Bordered regions draw an outline in Color.
	Bordered bool `json:"bordered,omitempty"`

	Selected bool `json:"selected,omitempty"`

	// Z is the paint order; higher paints over lower.
	Z int `json:"z"`
}
