package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the position of an order in the production pipeline
type OrderStatus string

const (
	OrderStatusPendingPaymentApproval OrderStatus = "PENDING_PAYMENT_APPROVAL"
	OrderStatusApproved               OrderStatus = "APPROVED"
	OrderStatusInProduction           OrderStatus = "IN_PRODUCTION"
	OrderStatusPreShipping            OrderStatus = "PRE_SHIPPING"
	OrderStatusCompleted              OrderStatus = "COMPLETED"
	OrderStatusCanceled               OrderStatus = "CANCELED"
)

// OrderStatuses lists every status in pipeline order, CANCELED last
var OrderStatuses = []OrderStatus{
	OrderStatusPendingPaymentApproval,
	OrderStatusApproved,
	OrderStatusInProduction,
	OrderStatusPreShipping,
	OrderStatusCompleted,
	OrderStatusCanceled,
}

// Valid reports whether s is one of the persisted status values
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible out of s
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

// ShippingMethod values accepted on new orders
const (
	ShippingDealerPickup      = "DEALER_PICKUP"
	ShippingFactoryDelivery   = "FACTORY_DELIVERY"
	ShippingThirdPartyFreight = "THIRD_PARTY_FREIGHT"
)

// Order is the aggregate root for history and media
type Order struct {
	ID                      string          `db:"id" json:"id"`
	DealerID                string          `db:"dealer_id" json:"dealer_id"`
	PoolModelID             string          `db:"pool_model_id" json:"pool_model_id"`
	ColorID                 string          `db:"color_id" json:"color_id"`
	FactoryID               *string         `db:"factory_id" json:"factory_id,omitempty"`
	Status                  OrderStatus     `db:"status" json:"status"`
	SerialNumber            *string         `db:"serial_number" json:"serial_number,omitempty"`
	ProductionPriority      *int            `db:"production_priority" json:"production_priority,omitempty"`
	RequestedShipDate       *time.Time      `db:"requested_ship_date" json:"requested_ship_date,omitempty"`
	ScheduledProductionDate *time.Time      `db:"scheduled_production_date" json:"scheduled_production_date,omitempty"`
	DeliveryAddress         string          `db:"delivery_address" json:"delivery_address"`
	PaymentProofURL         string          `db:"payment_proof_url" json:"payment_proof_url,omitempty"`
	ShippingMethod          string          `db:"shipping_method" json:"shipping_method"`
	QuotedPrice             decimal.Decimal `db:"quoted_price" json:"quoted_price"`
	Notes                   string          `db:"notes" json:"notes,omitempty"`
	CreatedAt               time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOrder creates a new order waiting for payment approval
func NewOrder(dealerID, poolModelID, colorID string, price decimal.Decimal) *Order {
	now := GetCurrentTime()

	return &Order{
		ID:          GenerateID("ord"),
		DealerID:    dealerID,
		PoolModelID: poolModelID,
		ColorID:     colorID,
		Status:      OrderStatusPendingPaymentApproval,
		QuotedPrice: price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OrderHistory is an append-only audit entry. It is never updated or deleted.
type OrderHistory struct {
	ID          string      `db:"id" json:"id"`
	OrderID     string      `db:"order_id" json:"order_id"`
	Status      OrderStatus `db:"status" json:"status"`
	Comment     *string     `db:"comment" json:"comment,omitempty"`
	ActorUserID string      `db:"actor_user_id" json:"actor_user_id"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// NewOrderHistory creates a history entry; an empty comment is stored as NULL
func NewOrderHistory(orderID string, status OrderStatus, comment, actorID string) *OrderHistory {
	h := &OrderHistory{
		ID:          GenerateID("ohi"),
		OrderID:     orderID,
		Status:      status,
		ActorUserID: actorID,
		CreatedAt:   GetCurrentTime(),
	}
	if comment != "" {
		h.Comment = &comment
	}
	return h
}

// DocumentType categorizes an order attachment
type DocumentType string

const (
	DocProofOfPayment   DocumentType = "PROOF_OF_PAYMENT"
	DocQualityChecklist DocumentType = "QUALITY_CHECKLIST"
	DocPreShippingPhoto DocumentType = "PRE_SHIPPING_PHOTO"
	DocBillOfLading     DocumentType = "BILL_OF_LADING"
	DocDeliveryReceipt  DocumentType = "DELIVERY_RECEIPT"
	DocOther            DocumentType = "OTHER"
)

var documentTypes = map[DocumentType]bool{
	DocProofOfPayment:   true,
	DocQualityChecklist: true,
	DocPreShippingPhoto: true,
	DocBillOfLading:     true,
	DocDeliveryReceipt:  true,
	DocOther:            true,
}

// Valid reports whether d is a known document type
func (d DocumentType) Valid() bool {
	return documentTypes[d]
}

// OrderMedia is a file attached to exactly one order
type OrderMedia struct {
	ID              string       `db:"id" json:"id"`
	OrderID         string       `db:"order_id" json:"order_id"`
	URL             string       `db:"url" json:"url"`
	FileName        string       `db:"file_name" json:"file_name"`
	DocType         DocumentType `db:"doc_type" json:"doc_type"`
	VisibleToDealer bool         `db:"visible_to_dealer" json:"visible_to_dealer"`
	UploadedBy      string       `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
}

// OrderDetail bundles an order with its audit trail and attachments
type OrderDetail struct {
	Order   *Order          `json:"order"`
	History []*OrderHistory `json:"history"`
	Media   []*OrderMedia   `json:"media"`
}
