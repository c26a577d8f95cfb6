package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable ledger entry. Total is captured at sale time.
type Sale struct {
	ID        int64           `db:"id" json:"id"`
	ItemID    int64           `db:"item_id" json:"item_id"`
	ItemName  string          `db:"item_name" json:"item_name,omitempty"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Total     decimal.Decimal `db:"total" json:"total"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
