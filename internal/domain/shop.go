package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrOutOfStock is returned when a product has no stock left.
var ErrOutOfStock = errors.New("product out of stock")

// Product is an item that can be exchanged for points.
type Product struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Price       int64  `json:"price" yaml:"price"`
	Stock       int    `json:"stock" yaml:"stock"`
}

// Exchange records a completed product exchange and the ledger entry that paid for it.
type Exchange struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Cost          int64     `json:"cost"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks that the product can be listed.
func (p *Product) Validate() error {
	if p.ID == "" || p.Name == "" {
		return ErrValidation
	}
	if p.Price <= 0 || p.Stock < 0 {
		return ErrValidation
	}
	return nil
}
