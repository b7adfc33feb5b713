package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

// CustomerService finds or creates guest customers.
type CustomerService interface {
	FindOrCreate(ctx context.Context, req *models.CustomerRequest) (*models.Customer, bool, *ServiceError)
}

type customerServiceImpl struct {
	repo   repository.CustomerRepository
	logger *zap.Logger
}

func NewCustomerService(repo repository.CustomerRepository, logger *zap.Logger) CustomerService {
	return &customerServiceImpl{repo: repo, logger: logger}
}

// FindOrCreate returns the customer with req.Email, creating it when absent.
// The bool reports whether a row was created.
func (s *customerServiceImpl) FindOrCreate(ctx context.Context, req *models.CustomerRequest) (*models.Customer, bool, *ServiceError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, false, badRequest("Email is required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !repository.IsNotFound(err) {
		s.logger.Error("Error finding customer", zap.Error(err))
		return nil, false, internalError("Database error")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Guest"
	}
	customer := &models.Customer{
		Email:   email,
		Name:    name,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  models.UserStatusActive,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		// lost a race with a concurrent create
		if again, findErr := s.repo.FindByEmail(ctx, email); findErr == nil {
			return again, false, nil
		}
		s.logger.Error("Error creating customer", zap.Error(err))
		return nil, false, internalError("Failed to create customer")
	}

	s.logger.Info("Customer created", zap.String("customer_id", customer.ID.String()))
	return customer, true, nil
}
