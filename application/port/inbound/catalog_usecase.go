package inbound

import (
	"context"

	"github.com/tokonova/tokonova/domain/entity"
)

type ProductListResponse struct {
	Items []*entity.Product `json:"items"`
	Total int               `json:"total"`
}

type HomepageResponse struct {
	FeaturedProducts []*entity.Product `json:"featured_products"`
	Services         []*entity.Product `json:"services"`
}

type UpsertProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Kind        string `json:"kind"`
	Featured    bool   `json:"featured"`
}

type CatalogUseCase interface {
	ListProducts(ctx context.Context, page, limit int) (*ProductListResponse, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ListServices(ctx context.Context) ([]*entity.Product, error)
	Homepage(ctx context.Context) (*HomepageResponse, error)
	CreateProduct(ctx context.Context, req UpsertProductRequest) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id string, req UpsertProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
