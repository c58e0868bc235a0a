package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role of an authenticated user
type Role string

const (
	RoleDealer     Role = "DEALER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// IsAdmin reports whether r is ADMIN or SUPERADMIN
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is a login. Dealer approval is held here rather than on the dealer.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	DealerID     *string   `db:"dealer_id" json:"dealer_id,omitempty"`
	IsApproved   bool      `db:"is_approved" json:"is_approved"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// JSONDoc is a free-form JSON column stored as text
type JSONDoc json.RawMessage

// Value implements driver.Valuer
func (j JSONDoc) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner for text and byte columns
func (j *JSONDoc) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = JSONDoc("{}")
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONDoc(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONDoc", src)
	}
	return nil
}

// MarshalJSON emits the stored document as-is
func (j JSONDoc) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON keeps a copy of the raw document
func (j *JSONDoc) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// IsObject reports whether the document is a JSON object
func (j JSONDoc) IsObject() bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(bytes.TrimSpace(j), &m) == nil
}

// Dealer is the tenant and the aggregate root for notifications and onboarding documents
type Dealer struct {
	ID                    string     `db:"id" json:"id"`
	CompanyName           string     `db:"company_name" json:"company_name"`
	ContactName           string     `db:"contact_name" json:"contact_name"`
	Phone                 string     `db:"phone" json:"phone"`
	Address               string     `db:"address" json:"address"`
	City                  string     `db:"city" json:"city"`
	State                 string     `db:"state" json:"state"`
	Zip                   string     `db:"zip" json:"zip"`
	TaxDocURL             string     `db:"tax_doc_url" json:"tax_doc_url,omitempty"`
	Onboarding            JSONDoc    `db:"onboarding" json:"onboarding"`
	AgreementSignatureURL string     `db:"agreement_signature_url" json:"agreement_signature_url,omitempty"`
	AgreementDocURL       string     `db:"agreement_doc_url" json:"agreement_doc_url,omitempty"`
	AgreementSignedAt     *time.Time `db:"agreement_signed_at" json:"agreement_signed_at,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// NewDealer creates a dealer profile with an empty onboarding document
func NewDealer(companyName, contactName string) *Dealer {
	now := GetCurrentTime()
	return &Dealer{
		ID:          GenerateID("dlr"),
		CompanyName: companyName,
		ContactName: contactName,
		Onboarding:  JSONDoc("{}"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProfileComplete reports whether every contact field is filled in
func (d *Dealer) ProfileComplete() bool {
	for _, v := range []string{d.CompanyName, d.ContactName, d.Phone, d.Address, d.City, d.State, d.Zip} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// DealerAccount is a dealer joined with the approval state and email of its user
type DealerAccount struct {
	Dealer
	UserID     string `db:"user_id" json:"user_id"`
	Email      string `db:"email" json:"email"`
	IsApproved bool   `db:"is_approved" json:"is_approved"`
}
