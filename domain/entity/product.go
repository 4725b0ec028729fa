package entity

import (
	"time"
)

// Product kinds. Repair services share the catalog table with physical
// products and only differ in kind.
const (
	KindProduct = "product"
	KindService = "service"
)

type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Stock       int        `json:"stock"`
	Kind        string     `json:"kind"`
	Featured    bool       `json:"featured"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

func NewProduct(id, name, description, kind string, price int64, stock int) *Product {
	now := time.Now()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Kind:        kind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
