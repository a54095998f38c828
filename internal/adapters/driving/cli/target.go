package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// targetFlags describe a selection on a page, in the pixel space of a
// page container.
type targetFlags struct {
	doc       string
	page      int
	container string
	rects     []string
	text      string
	prefix    string
	suffix    string
}

func (f *targetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.doc, "doc", "", "document hash")
	cmd.Flags().IntVar(&f.page, "page", 0, "page number (1-based)")
	cmd.Flags().StringVar(&f.container, "container", "", "page container box as left,top,width,height")
	cmd.Flags().StringArrayVar(&f.rects, "rect", nil, "selected line box as left,top,width,height (repeatable)")
	cmd.Flags().StringVar(&f.text, "text", "", "selected text")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "text just before the selection")
	cmd.Flags().StringVar(&f.suffix, "suffix", "", "text just after the selection")
}

func (f *targetFlags) reset() {
	*f = targetFlags{}
}

// target normalises the flags into an anchor target. With no rects and
// allowPage set, the target is the page itself.
func (f *targetFlags) target(allowPage bool) (domain.AnchorTarget, error) {
	t := domain.AnchorTarget{
		Key: domain.PageKey{DocumentHash: f.doc, Page: f.page},
		Quote: domain.TextQuote{
			Exact:  strings.TrimSpace(f.text),
			Prefix: f.prefix,
			Suffix: f.suffix,
		},
	}
	if err := t.Key.Validate(); err != nil {
		return t, err
	}

	if len(f.rects) == 0 {
		if !allowPage {
			return t, fmt.Errorf("%w: at least one --rect is required", domain.ErrValidation)
		}
		return t, nil
	}
	if f.container == "" {
		return t, fmt.Errorf("%w: --container is required with --rect", domain.ErrValidation)
	}

	container, err := parseBox(f.container)
	if err != nil {
		return t, fmt.Errorf("--container: %w", err)
	}
	raw := make([]domain.Box, 0, len(f.rects))
	for _, s := range f.rects {
		b, err := parseBox(s)
		if err != nil {
			return t, fmt.Errorf("--rect: %w", err)
		}
		raw = append(raw, b)
	}

	t.Rects = domain.Normalize(container, raw)
	if len(t.Rects) == 0 {
		return t, fmt.Errorf("%w: no rect lies inside the container", domain.ErrValidation)
	}
	return t, nil
}

// parseBox reads "left,top,width,height".
func parseBox(s string) (domain.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.Box{}, fmt.Errorf("%w: %q is not left,top,width,height", domain.ErrValidation, s)
	}
	var v [4]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Box{}, fmt.Errorf("%w: %q is not a number", domain.ErrValidation, p)
		}
		v[i] = n
	}
	b := domain.Box{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
	if b.Empty() {
		return domain.Box{}, fmt.Errorf("%w: %q has no area", domain.ErrValidation, s)
	}
	return b, nil
}
