package viewer

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Panel is the side list of a page's annotations. The expanded anchor is
// the repository's selection, so expanding and clicking a region are the
// same action.
type Panel struct {
	repo *Repository

	anchorBody string
	pageBody   string

	editingID string
	editBody  string

	pending bool
	err     error
}

// NewPanel creates a panel over repo.
func NewPanel(repo *Repository) *Panel {
	return &Panel{repo: repo}
}

// Items returns the active page's bundles in arrival order.
func (p *Panel) Items() []domain.AnnotationBundle {
	if set := p.repo.Current(); set != nil {
		return set.Items
	}
	return nil
}

// Expanded returns the expanded bundle, or nil.
func (p *Panel) Expanded() *domain.AnnotationBundle {
	return p.repo.Current().Bundle(p.repo.Selected())
}

// Toggle expands anchorID, or collapses it if already expanded.
func (p *Panel) Toggle(anchorID string) {
	if p.repo.Selected() == anchorID {
		p.repo.ClearSelection()
	} else {
		p.repo.Select(anchorID)
	}
	p.anchorBody = ""
	p.CancelEdit()
}

// AnchorBody returns the compose text for the expanded anchor.
func (p *Panel) AnchorBody() string { return p.anchorBody }

// SetAnchorBody updates the compose text for the expanded anchor.
func (p *Panel) SetAnchorBody(s string) { p.anchorBody = s }

// PageBody returns the page-level compose text.
func (p *Panel) PageBody() string { return p.pageBody }

// SetPageBody updates the page-level compose text.
func (p *Panel) SetPageBody(s string) { p.pageBody = s }

// Editing returns the memo being edited, or "".
func (p *Panel) Editing() string { return p.editingID }

// EditBody returns the text of the memo being edited.
func (p *Panel) EditBody() string { return p.editBody }

// SetEditBody updates the text of the memo being edited.
func (p *Panel) SetEditBody(s string) { p.editBody = s }

// BeginEdit starts editing a memo of the expanded anchor.
func (p *Panel) BeginEdit(memoID string) error {
	b := p.Expanded()
	if b == nil {
		return fmt.Errorf("%w: no anchor is expanded", domain.ErrValidation)
	}
	m := b.Memo(memoID)
	if m == nil {
		return fmt.Errorf("memo %s: %w", memoID, domain.ErrNotFound)
	}
	p.editingID = m.ID
	p.editBody = m.Body
	return nil
}

// CancelEdit abandons the edit in progress.
func (p *Panel) CancelEdit() {
	p.editingID = ""
	p.editBody = ""
}

// Pending reports whether a panel submission is in flight.
func (p *Panel) Pending() bool { return p.pending }

// Err returns the last submission failure.
func (p *Panel) Err() error { return p.err }

// Notice returns the user-facing text of the last submission failure.
func (p *Panel) Notice() string { return domain.UserMessage(p.err) }

// SubmitAnchorMemo starts adding the composed memo to the expanded anchor.
func (p *Panel) SubmitAnchorMemo() (Op, error) {
	b := p.Expanded()
	if b == nil {
		return Op{}, fmt.Errorf("%w: no anchor is expanded", domain.ErrValidation)
	}
	body, err := p.body(p.anchorBody)
	if err != nil {
		return Op{}, err
	}
	return p.start(Op{Kind: OpAddMemo, AnchorID: b.Anchor.ID, Body: body})
}

// SubmitPageMemo starts creating a page-level memo on the active page.
func (p *Panel) SubmitPageMemo() (Op, error) {
	body, err := p.body(p.pageBody)
	if err != nil {
		return Op{}, err
	}
	target := domain.AnchorTarget{Key: p.repo.Active()}
	return p.start(Op{Kind: OpCreateMemo, Target: target, Body: body})
}

// SubmitEdit starts saving the memo being edited.
func (p *Panel) SubmitEdit() (Op, error) {
	if p.editingID == "" {
		return Op{}, fmt.Errorf("%w: no memo is being edited", domain.ErrValidation)
	}
	body, err := p.body(p.editBody)
	if err != nil {
		return Op{}, err
	}
	return p.start(Op{Kind: OpEditMemo, ID: p.editingID, Body: body})
}

// DeleteMemo starts deleting a memo.
func (p *Panel) DeleteMemo(memoID string) (Op, error) {
	return p.start(Op{Kind: OpDeleteMemo, ID: memoID})
}

// DeleteHighlight starts deleting the expanded anchor's highlight.
func (p *Panel) DeleteHighlight() (Op, error) {
	b := p.Expanded()
	if b == nil || b.Highlight() == nil {
		return Op{}, fmt.Errorf("%w: expanded anchor has no highlight", domain.ErrValidation)
	}
	return p.start(Op{Kind: OpDeleteHighlight, ID: b.Highlight().ID})
}

func (p *Panel) body(s string) (string, error) {
	body := strings.TrimSpace(s)
	if body == "" {
		return "", fmt.Errorf("%w: memo body is required", domain.ErrValidation)
	}
	return body, nil
}

func (p *Panel) start(op Op) (Op, error) {
	if p.pending {
		return Op{}, domain.ErrSaving
	}
	op.Origin = OriginPanel
	p.pending = true
	return op, nil
}

// Finish ends a panel submission. Success clears the compose state that
// produced op; failure leaves it untouched and records err.
func (p *Panel) Finish(op Op, err error) {
	p.pending = false
	if err != nil {
		p.err = err
		return
	}
	p.err = nil
	switch op.Kind {
	case OpAddMemo:
		p.anchorBody = ""
	case OpCreateMemo:
		p.pageBody = ""
	case OpEditMemo:
		p.CancelEdit()
	case OpDeleteMemo:
		if p.editingID == op.ID {
			p.CancelEdit()
		}
	}
}
