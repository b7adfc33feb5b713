package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

type ProductService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter, page, limit int) ([]models.Product, int64, *ServiceError)
	GetProduct(ctx context.Context, id string) (*models.Product, *ServiceError)
}

type productServiceImpl struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

func NewProductService(repo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productServiceImpl{repo: repo, logger: logger}
}

func (s *productServiceImpl) ListProducts(ctx context.Context, filter models.ProductFilter, page, limit int) ([]models.Product, int64, *ServiceError) {
	products, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch products", zap.Error(err))
		return nil, 0, internalError("Failed to fetch products")
	}
	return products, total, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id string) (*models.Product, *ServiceError) {
	productID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || productID <= 0 {
		return nil, badRequest("Invalid product id")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Product not found")
		}
		s.logger.Error("Failed to fetch product", zap.Int64("product_id", productID), zap.Error(err))
		return nil, internalError("Failed to fetch product")
	}
	return product, nil
}
