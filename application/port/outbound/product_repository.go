package outbound

import (
	"context"
	"errors"

	"github.com/tokonova/tokonova/domain/entity"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, kind string, offset, limit int) ([]*entity.Product, int, error)
	ListFeatured(ctx context.Context, limit int) ([]*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
	SoftDelete(ctx context.Context, id string) error
}
