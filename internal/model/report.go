package model

import "github.com/shopspring/decimal"

// MonthlyTotal is the revenue of one calendar month (YYYY-MM, UTC).
type MonthlyTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// TopSeller is an item name with the units sold under it.
type TopSeller struct {
	Name     string `db:"name" json:"name"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// LowStockItem is an item at or below the alert threshold.
type LowStockItem struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// Dashboard combines the aggregate views.
type Dashboard struct {
	Monthly       []MonthlyTotal `json:"monthly"`
	TopSellers    []TopSeller    `json:"top_sellers"`
	LowStock      []LowStockItem `json:"low_stock"`
	OrphanedSales int            `json:"orphaned_sales"`
}
