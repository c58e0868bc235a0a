package models

import "time"

// Notification is a dealer-facing notice. Only the read flag ever changes.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	DealerID  string    `db:"dealer_id" json:"dealer_id"`
	OrderID   *string   `db:"order_id" json:"order_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewNotification creates an unread notification; orderID may be empty
func NewNotification(dealerID, orderID, title, message string) *Notification {
	n := &Notification{
		ID:        GenerateID("ntf"),
		DealerID:  dealerID,
		Title:     title,
		Message:   message,
		CreatedAt: GetCurrentTime(),
	}
	if orderID != "" {
		n.OrderID = &orderID
	}
	return n
}
