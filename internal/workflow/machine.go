package workflow

import (
	"errors"
	"fmt"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
)

var (
	ErrUnknownStatus  = errors.New("unknown target status")
	ErrInvalidTarget  = errors.New("status cannot be a transition target")
	ErrTerminalStatus = errors.New("order is in a terminal status")
	ErrSameStatus     = errors.New("order is already in the requested status")
)

// Requirement kinds reported by Unmet
const (
	KindDocument = "document"
	KindField    = "field"
)

// Unmet is returned when a transition is blocked by a missing document or field.
// It names only the first gap found.
type Unmet struct {
	Kind string
	Name string
}

func (u *Unmet) Error() string {
	return fmt.Sprintf("%s missing: %s", u.Kind, u.Name)
}

// DocumentMissing builds the Unmet error for a missing document type
func DocumentMissing(doc models.DocumentType) *Unmet {
	return &Unmet{Kind: KindDocument, Name: string(doc)}
}

// FieldMissing builds the Unmet error for an empty order field
func FieldMissing(f Field) *Unmet {
	return &Unmet{Kind: KindField, Name: string(f)}
}

// CheckTransition decides whether order may move into target given the document
// types currently attached to it.
//
// The current status only matters for terminal and no-op checks. Stages may be
// skipped; only target's prerequisites are evaluated.
func CheckTransition(order *models.Order, target models.OrderStatus, attached []models.DocumentType) error {
	if !target.Valid() {
		return ErrUnknownStatus
	}

	req, ok := RequirementsFor(target)
	if !ok {
		return ErrInvalidTarget
	}

	if order.Status == target {
		return ErrSameStatus
	}

	if order.Status.Terminal() {
		return ErrTerminalStatus
	}

	if target == models.OrderStatusCanceled {
		return nil
	}

	present := make(map[models.DocumentType]bool, len(attached))
	for _, d := range attached {
		present[d] = true
	}

	for _, doc := range req.Documents {
		if !present[doc] {
			return DocumentMissing(doc)
		}
	}

	for _, f := range req.Fields {
		if !fieldPresent(order, f) {
			return FieldMissing(f)
		}
	}

	return nil
}

// Missing lists every unmet prerequisite of target. It is used for checklist displays
// and never to decide a transition.
func Missing(order *models.Order, target models.OrderStatus, attached []models.DocumentType) []*Unmet {
	req, ok := RequirementsFor(target)
	if !ok {
		return nil
	}

	present := make(map[models.DocumentType]bool, len(attached))
	for _, d := range attached {
		present[d] = true
	}

	var out []*Unmet
	for _, doc := range req.Documents {
		if !present[doc] {
			out = append(out, DocumentMissing(doc))
		}
	}
	for _, f := range req.Fields {
		if !fieldPresent(order, f) {
			out = append(out, FieldMissing(f))
		}
	}
	return out
}
