package viewer

import (
	"context"
	"fmt"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// OpKind identifies a mutation.
type OpKind int

const (
	OpCreateHighlight OpKind = iota + 1
	OpCreateMemo
	OpAddMemo
	OpEditMemo
	OpDeleteMemo
	OpDeleteHighlight
)

// String returns the string representation of the kind.
func (k OpKind) String() string {
	switch k {
	case OpCreateHighlight:
		return "create-highlight"
	case OpCreateMemo:
		return "create-memo"
	case OpAddMemo:
		return "add-memo"
	case OpEditMemo:
		return "edit-memo"
	case OpDeleteMemo:
		return "delete-memo"
	case OpDeleteHighlight:
		return "delete-highlight"
	default:
		return "unknown"
	}
}

// Origin records which component started an op, so its completion is
// reported back to the same place.
type Origin int

const (
	OriginSelection Origin = iota
	OriginPanel
)

// Op is one pending mutation. It is a plain value so it can be handed to
// another goroutine.
type Op struct {
	Kind   OpKind
	Origin Origin

	// Target is set for creations that make a new anchor.
	Target domain.AnchorTarget

	// AnchorID is set for memos added to an existing anchor.
	AnchorID string

	// ID is the memo or highlight being edited or deleted.
	ID string

	Color string
	Body  string
}

// Execute performs the op against svc. It never retries.
func (o Op) Execute(ctx context.Context, svc driving.AnnotationService) error {
	var err error
	switch o.Kind {
	case OpCreateHighlight:
		_, err = svc.CreateHighlight(ctx, o.Target, o.Color)
	case OpCreateMemo:
		_, err = svc.CreateMemo(ctx, o.Target, o.Body)
	case OpAddMemo:
		_, err = svc.CreateMemoOnAnchor(ctx, o.AnchorID, o.Body)
	case OpEditMemo:
		err = svc.EditMemo(ctx, o.ID, o.Body)
	case OpDeleteMemo:
		err = svc.DeleteMemo(ctx, o.ID)
	case OpDeleteHighlight:
		err = svc.DeleteHighlight(ctx, o.ID)
	default:
		return fmt.Errorf("%w: unknown operation %d", domain.ErrValidation, o.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", o.Kind, err)
	}
	return nil
}
