package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     PageKey
		wantErr bool
	}{
		{"valid", PageKey{DocumentHash: "abc", Page: 1}, false},
		{"empty hash", PageKey{DocumentHash: "  ", Page: 1}, true},
		{"page zero", PageKey{DocumentHash: "abc", Page: 0}, true},
		{"negative page", PageKey{DocumentHash: "abc", Page: -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPageKey_String(t *testing.T) {
	assert.Equal(t, "abc#3", PageKey{DocumentHash: "abc", Page: 3}.String())
	assert.True(t, PageKey{}.IsZero())
}

func TestAnnotationBundle_Kind(t *testing.T) {
	rects := []NormalizedRect{{X: 0.1, Y: 0.1, W: 0.2, H: 0.02}}

	highlighted := AnnotationBundle{
		Anchor:     Anchor{ID: "a1", Rects: rects},
		Highlights: []Highlight{{ID: "h1", AnchorID: "a1", Color: "#fde047"}},
		Memos:      []Memo{{ID: "m1", AnchorID: "a1"}},
	}
	memoOnly := AnnotationBundle{
		Anchor: Anchor{ID: "a2", Rects: rects},
		Memos:  []Memo{{ID: "m2", AnchorID: "a2"}},
	}
	pageLevel := AnnotationBundle{
		Anchor: Anchor{ID: "a3"},
		Memos:  []Memo{{ID: "m3", AnchorID: "a3"}},
	}

	assert.Equal(t, BundleHighlight, highlighted.Kind())
	assert.Equal(t, BundleMemo, memoOnly.Kind())
	assert.Equal(t, BundlePageLevel, pageLevel.Kind())
	assert.Equal(t, "page", pageLevel.Kind().String())

	require.NotNil(t, highlighted.Highlight())
	assert.Equal(t, "h1", highlighted.Highlight().ID)
	assert.Nil(t, memoOnly.Highlight())
	assert.NotNil(t, highlighted.Memo("m1"))
	assert.Nil(t, highlighted.Memo("missing"))
}

func TestNewPageAnnotationSet_Totals(t *testing.T) {
	key := PageKey{DocumentHash: "abc", Page: 1}
	items := []AnnotationBundle{
		{
			Anchor:     Anchor{ID: "a1"},
			Highlights: []Highlight{{ID: "h1"}},
			Memos:      []Memo{{ID: "m1"}, {ID: "m2"}},
		},
		{
			Anchor: Anchor{ID: "a2"},
			Memos:  []Memo{{ID: "m3"}},
		},
	}

	set := NewPageAnnotationSet(key, items)

	assert.Equal(t, 2, set.Count)
	assert.Equal(t, Totals{Highlights: 1, Notes: 3, Annotations: 4}, set.Totals)
	assert.NotNil(t, set.Bundle("a2"))
	assert.Nil(t, set.Bundle("a9"))

	var nilSet *PageAnnotationSet
	assert.Nil(t, nilSet.Bundle("a1"))
}
