// Package workflow holds the order pipeline rules: which documents and fields must be
// present before an order may enter a status, and which moves are possible at all.
package workflow

import (
	"strings"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
)

// Field names an order column that must be filled before entering a status
type Field string

const (
	FieldFactory      Field = "factory_id"
	FieldSerialNumber Field = "serial_number"
)

// Requirement lists what must exist on an order before it may enter a status.
// Order matters: the first unmet entry is the one reported.
type Requirement struct {
	Documents []models.DocumentType `json:"documents"`
	Fields    []Field               `json:"fields"`
}

var requirements = map[models.OrderStatus]Requirement{
	models.OrderStatusApproved: {
		Documents: []models.DocumentType{models.DocProofOfPayment},
	},
	models.OrderStatusInProduction: {
		Fields: []Field{FieldFactory},
	},
	models.OrderStatusPreShipping: {
		Documents: []models.DocumentType{models.DocQualityChecklist, models.DocPreShippingPhoto},
		Fields:    []Field{FieldSerialNumber},
	},
	models.OrderStatusCompleted: {
		Documents: []models.DocumentType{models.DocBillOfLading},
		Fields:    []Field{FieldSerialNumber},
	},
	models.OrderStatusCanceled: {},
}

// RequirementsFor returns the prerequisites of entering status. The second result is
// false for statuses that can never be a transition target.
func RequirementsFor(status models.OrderStatus) (Requirement, bool) {
	r, ok := requirements[status]
	return r, ok
}

// Table returns a copy of the full requirement table keyed by target status
func Table() map[models.OrderStatus]Requirement {
	out := make(map[models.OrderStatus]Requirement, len(requirements))
	for status, r := range requirements {
		out[status] = Requirement{
			Documents: append([]models.DocumentType(nil), r.Documents...),
			Fields:    append([]Field(nil), r.Fields...),
		}
	}
	return out
}

// fieldPresent reports whether the order column behind f is non-empty
func fieldPresent(order *models.Order, f Field) bool {
	switch f {
	case FieldFactory:
		return order.FactoryID != nil && strings.TrimSpace(*order.FactoryID) != ""
	case FieldSerialNumber:
		return order.SerialNumber != nil && strings.TrimSpace(*order.SerialNumber) != ""
	default:
		return false
	}
}
