package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a stocked product with a unit price.
type Item struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	ImageRef  *string         `db:"image_ref" json:"image_ref,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemInput carries the editable fields of an item.
type ItemInput struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Normalize trims the name and validates the input.
func (in ItemInput) Normalize() (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.Quantity < 0 {
		return in, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if in.Price.IsNegative() {
		return in, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return in, nil
}
