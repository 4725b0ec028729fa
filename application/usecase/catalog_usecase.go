package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tokonova/tokonova/application/port/inbound"
	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/domain/entity"
	"github.com/tokonova/tokonova/infrastructure/service/cache"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
	"github.com/tokonova/tokonova/pkg/apperror"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	featuredPageSize = 8
)

type CatalogUseCase struct {
	productRepository outbound.ProductRepository
	cacheService      outbound.CacheService
	logger            logger.Logger
}

func NewCatalogUseCase(
	productRepo outbound.ProductRepository,
	cacheService outbound.CacheService,
	log logger.Logger,
) inbound.CatalogUseCase {
	return &CatalogUseCase{
		productRepository: productRepo,
		cacheService:      cacheService,
		logger:            log,
	}
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context, page, limit int) (*inbound.ProductListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var resp inbound.ProductListResponse
	err := uc.cacheService.Memoize(ctx, cache.ProductListKey(page, limit), cache.TTLProductList, func() (interface{}, error) {
		items, total, err := uc.productRepository.List(ctx, entity.KindProduct, (page-1)*limit, limit)
		if err != nil {
			return nil, err
		}
		return &inbound.ProductListResponse{Items: items, Total: total}, nil
	}, &resp)
	if err != nil {
		uc.logger.Error(ctx, "Failed to list products", err, map[string]interface{}{
			"page":  page,
			"limit": limit,
		})
		return nil, apperror.NewInternalServer("Failed to list products")
	}
	return &resp, nil
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := uc.cacheService.Memoize(ctx, cache.ProductKey(id), cache.TTLProductDetail, func() (interface{}, error) {
		return uc.productRepository.FindByID(ctx, id)
	}, &product)
	if err != nil {
		if errors.Is(err, outbound.ErrProductNotFound) {
			return nil, apperror.NewNotFound("Product not found")
		}
		uc.logger.Error(ctx, "Failed to load product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, apperror.NewInternalServer("Failed to load product")
	}
	return &product, nil
}

func (uc *CatalogUseCase) ListServices(ctx context.Context) ([]*entity.Product, error) {
	var services []*entity.Product
	err := uc.cacheService.Memoize(ctx, cache.ServiceListKey(), cache.TTLServiceList, func() (interface{}, error) {
		items, _, err := uc.productRepository.List(ctx, entity.KindService, 0, maxPageSize)
		if err != nil {
			return nil, err
		}
		return items, nil
	}, &services)
	if err != nil {
		uc.logger.Error(ctx, "Failed to list services", err, nil)
		return nil, apperror.NewInternalServer("Failed to list services")
	}
	return services, nil
}

func (uc *CatalogUseCase) Homepage(ctx context.Context) (*inbound.HomepageResponse, error) {
	var resp inbound.HomepageResponse
	err := uc.cacheService.Memoize(ctx, cache.HomepageKey(), cache.TTLHomepage, func() (interface{}, error) {
		featured, err := uc.productRepository.ListFeatured(ctx, featuredPageSize)
		if err != nil {
			return nil, err
		}
		services, _, err := uc.productRepository.List(ctx, entity.KindService, 0, maxPageSize)
		if err != nil {
			return nil, err
		}
		return &inbound.HomepageResponse{FeaturedProducts: featured, Services: services}, nil
	}, &resp)
	if err != nil {
		uc.logger.Error(ctx, "Failed to build homepage", err, nil)
		return nil, apperror.NewInternalServer("Failed to build homepage")
	}
	return &resp, nil
}

func (uc *CatalogUseCase) CreateProduct(ctx context.Context, req inbound.UpsertProductRequest) (*entity.Product, error) {
	if err := validateUpsertRequest(req); err != nil {
		return nil, err
	}

	product := entity.NewProduct(uuid.NewString(), strings.TrimSpace(req.Name), req.Description, req.Kind, req.Price, req.Stock)
	product.Featured = req.Featured

	if err := uc.productRepository.Create(ctx, product); err != nil {
		uc.logger.Error(ctx, "Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, apperror.NewInternalServer("Failed to create product")
	}

	uc.invalidate(ctx, product.Kind, product.ID)
	uc.logger.Info(ctx, "Product created", map[string]interface{}{
		"product_id": product.ID,
		"kind":       product.Kind,
	})
	return product, nil
}

func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, id string, req inbound.UpsertProductRequest) (*entity.Product, error) {
	if err := validateUpsertRequest(req); err != nil {
		return nil, err
	}

	product, err := uc.productRepository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, outbound.ErrProductNotFound) {
			return nil, apperror.NewNotFound("Product not found")
		}
		uc.logger.Error(ctx, "Failed to load product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, apperror.NewInternalServer("Failed to update product")
	}

	previousKind := product.Kind
	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	product.Kind = req.Kind
	product.Featured = req.Featured

	if err := uc.productRepository.Update(ctx, product); err != nil {
		uc.logger.Error(ctx, "Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, apperror.NewInternalServer("Failed to update product")
	}

	uc.invalidate(ctx, product.Kind, product.ID)
	if previousKind != product.Kind {
		uc.invalidate(ctx, previousKind, product.ID)
	}
	return product, nil
}

func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	product, err := uc.productRepository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, outbound.ErrProductNotFound) {
			return apperror.NewNotFound("Product not found")
		}
		uc.logger.Error(ctx, "Failed to load product", err, map[string]interface{}{
			"product_id": id,
		})
		return apperror.NewInternalServer("Failed to delete product")
	}

	if err := uc.productRepository.SoftDelete(ctx, id); err != nil {
		uc.logger.Error(ctx, "Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return apperror.NewInternalServer("Failed to delete product")
	}

	uc.invalidate(ctx, product.Kind, id)
	uc.logger.Info(ctx, "Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// invalidate clears every catalog view derived from the mutated item. The
// detail view lives under the products namespace for both kinds, so it is
// deleted explicitly; the cache layer folds the homepage composite into each
// resource.
func (uc *CatalogUseCase) invalidate(ctx context.Context, kind, id string) {
	uc.cacheService.Delete(ctx, cache.ProductKey(id))
	if kind == entity.KindService {
		uc.cacheService.InvalidateResource(ctx, cache.ResourceServices)
		return
	}
	uc.cacheService.InvalidateResource(ctx, cache.ResourceProducts)
}

func validateUpsertRequest(req inbound.UpsertProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperror.NewBadRequest("Name is required")
	}
	if req.Price < 0 {
		return apperror.NewBadRequest("Price must not be negative")
	}
	if req.Stock < 0 {
		return apperror.NewBadRequest("Stock must not be negative")
	}
	if req.Kind != entity.KindProduct && req.Kind != entity.KindService {
		return apperror.NewBadRequest("Kind must be product or service")
	}
	return nil
}
