package models

import "time"

// InventoryItem is master data for a tracked part or material
type InventoryItem struct {
	ID        string    `db:"id" json:"id"`
	SKU       string    `db:"sku" json:"sku"`
	Name      string    `db:"name" json:"name"`
	Unit      string    `db:"unit" json:"unit"`
	Category  string    `db:"category" json:"category"`
	MinStock  int       `db:"min_stock" json:"min_stock"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InventoryStock is the on-hand quantity of an item at one factory
type InventoryStock struct {
	ItemID    string    `db:"item_id" json:"item_id"`
	FactoryID string    `db:"factory_id" json:"factory_id"`
	OnHand    int       `db:"on_hand" json:"on_hand"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StockLevel is a stock row enriched with item and factory names for listings
type StockLevel struct {
	InventoryStock
	SKU         string `db:"sku" json:"sku"`
	ItemName    string `db:"item_name" json:"item_name"`
	FactoryName string `db:"factory_name" json:"factory_name"`
	MinStock    int    `db:"min_stock" json:"min_stock"`
}

// Inventory adjustment reasons
const (
	TxnReasonReceipt     = "RECEIPT"
	TxnReasonConsumption = "CONSUMPTION"
	TxnReasonCount       = "COUNT_CORRECTION"
	TxnReasonDamage      = "DAMAGE"
	TxnReasonTransfer    = "TRANSFER"
)

// InventoryTxn is an append-only ledger row. BalanceAfter is on-hand after applying Delta.
type InventoryTxn struct {
	ID           string    `db:"id" json:"id"`
	ItemID       string    `db:"item_id" json:"item_id"`
	FactoryID    string    `db:"factory_id" json:"factory_id"`
	Delta        int       `db:"delta" json:"delta"`
	BalanceAfter int       `db:"balance_after" json:"balance_after"`
	Reason       string    `db:"reason" json:"reason"`
	Reference    string    `db:"reference" json:"reference,omitempty"`
	ActorUserID  string    `db:"actor_user_id" json:"actor_user_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PoolStockStatus buckets finished shells held at a factory
type PoolStockStatus string

const (
	PoolStockReady        PoolStockStatus = "READY"
	PoolStockReserved     PoolStockStatus = "RESERVED"
	PoolStockInProduction PoolStockStatus = "IN_PRODUCTION"
	PoolStockDamaged      PoolStockStatus = "DAMAGED"
)

// PoolStockStatuses lists the summary buckets in display order
var PoolStockStatuses = []PoolStockStatus{
	PoolStockReady,
	PoolStockReserved,
	PoolStockInProduction,
	PoolStockDamaged,
}

// Valid reports whether s is a known bucket
func (s PoolStockStatus) Valid() bool {
	for _, v := range PoolStockStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// PoolStock is the quantity of one model/color in one status at one factory.
// ColorID is empty for uncolored shells.
type PoolStock struct {
	ID          string          `db:"id" json:"id"`
	FactoryID   string          `db:"factory_id" json:"factory_id"`
	PoolModelID string          `db:"pool_model_id" json:"pool_model_id"`
	ColorID     string          `db:"color_id" json:"color_id,omitempty"`
	Status      PoolStockStatus `db:"status" json:"status"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
