package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func TestHighlightCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range highlightCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"create", "delete"}, names)
}

func TestHighlightCreate_DefaultColor(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "highlight", "create",
		"--doc", testDocHash, "--page", "1",
		"--container", "0,0,600,800",
		"--rect", "60,80,300,16", "--rect", "60,96,120,16",
		"--text", "Attention is all you need")

	require.NoError(t, err)
	assert.Contains(t, out, "Highlight created:")
	assert.Contains(t, out, "Rects:  2")

	set := ts.fetch(t, 1)
	require.Len(t, set.Items, 1)
	b := set.Items[0]
	assert.Equal(t, domain.BundleHighlight, b.Kind())
	assert.Equal(t, "Attention is all you need", b.Anchor.Quote.Exact)
	require.Len(t, b.Highlights, 1)
	assert.Equal(t, domain.DefaultHighlightColor, b.Highlights[0].Color)
	assert.Equal(t, "cli-tester", b.Highlights[0].CreatedBy)
	assert.Len(t, b.Anchor.Rects, 2)
}

func TestHighlightCreate_ColorFromConfig(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.settings.Set("viewer.default_color", "#93c5fd"))

	_, err := execute(t, "highlight", "create",
		"--doc", testDocHash, "--page", "1",
		"--container", "0,0,600,800", "--rect", "60,80,300,16")

	require.NoError(t, err)
	set := ts.fetch(t, 1)
	require.Len(t, set.Items, 1)
	assert.Equal(t, "#93c5fd", set.Items[0].Highlights[0].Color)
}

func TestHighlightCreate_ExplicitColor(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, "highlight", "create",
		"--doc", testDocHash, "--page", "1",
		"--container", "0,0,600,800", "--rect", "60,80,300,16",
		"--color", "#86EFAC")

	require.NoError(t, err)
	set := ts.fetch(t, 1)
	require.Len(t, set.Items, 1)
	assert.Equal(t, "#86efac", set.Items[0].Highlights[0].Color)
}

func TestHighlightCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "no rect",
			args: []string{"--doc", testDocHash, "--page", "1"},
		},
		{
			name: "bad colour",
			args: []string{
				"--doc", testDocHash, "--page", "1",
				"--container", "0,0,600,800", "--rect", "60,80,300,16", "--color", "teal-ish",
			},
		},
		{
			name: "missing doc",
			args: []string{"--page", "1", "--container", "0,0,600,800", "--rect", "60,80,300,16"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServices(t)

			_, err := execute(t, append([]string{"highlight", "create"}, tt.args...)...)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, ts.fetch(t, 1).Items)
		})
	}
}

func TestHighlightCreate_NoService(t *testing.T) {
	setupTestServices(t)
	SetServices(nil)

	_, err := execute(t, "highlight", "create", "--doc", testDocHash, "--page", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "annotation service not configured")
}

func TestHighlightDelete(t *testing.T) {
	ts := setupTestServices(t)
	created := ts.highlight(t, "#fde047")

	out, err := execute(t, "highlight", "delete", created.HighlightID)

	require.NoError(t, err)
	assert.Contains(t, out, "Highlight deleted: "+created.HighlightID)
	assert.Zero(t, ts.fetch(t, 1).Totals.Highlights)
}

func TestHighlightDelete_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "highlight", "delete", "missing-id")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to delete highlight")
}

func TestHighlightDelete_RequiresID(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "highlight", "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
