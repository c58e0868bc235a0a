package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Factory builds pools and holds stock
type Factory struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PoolModel is a catalog shell with its list price
type PoolModel struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	LengthFt  decimal.Decimal `db:"length_ft" json:"length_ft"`
	WidthFt   decimal.Decimal `db:"width_ft" json:"width_ft"`
	DepthFt   decimal.Decimal `db:"depth_ft" json:"depth_ft"`
	BasePrice decimal.Decimal `db:"base_price" json:"base_price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Color is a gelcoat finish
type Color struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	HexCode   string    `db:"hex_code" json:"hex_code"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
