package services

import (
	"errors"
	"fmt"
	"strings"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"
)

// --- Custom Service Errors for Customer ---
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPhoneExists      = errors.New("phone number already exists")
)

// --- Customer DTOs ---
type CreateCustomerRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    string  `json:"phone" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

type UpdateCustomerRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

// --- CustomerService Interface ---
type CustomerService interface {
	CreateCustomer(storeID int64, req CreateCustomerRequest) (*models.Customer, error)
	GetCustomerByID(storeID, customerID int64) (*models.Customer, error)
	GetCustomers(storeID int64, search string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(storeID, customerID int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(storeID, customerID int64) error
}

// --- customerService Implementation ---
type customerService struct {
	customerRepo  repositories.CustomerRepository
	db            repositories.SQLExecutor
	defaultRegion string
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(repo repositories.CustomerRepository, db repositories.SQLExecutor, defaultRegion string) CustomerService {
	return &customerService{customerRepo: repo, db: db, defaultRegion: defaultRegion}
}

func (s *customerService) normalizePhone(raw string) (string, error) {
	phone, err := utils.NormalizePhone(raw, s.defaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: phone: %v", ErrValidation, err)
	}
	return phone, nil
}

func (s *customerService) CreateCustomer(storeID int64, req CreateCustomerRequest) (*models.Customer, error) {
	if utils.IsEmpty(req.FullName) {
		return nil, fmt.Errorf("%w: full name cannot be empty", ErrValidation)
	}
	phone, err := s.normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	customer := &models.Customer{
		StoreID:  storeID,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    phone,
		Email:    trimmedOrNil(req.Email),
		Address:  trimmedOrNil(req.Address),
		Notes:    trimmedOrNil(req.Notes),
	}
	if _, err := s.customerRepo.CreateCustomer(s.db, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPhoneExists
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomerByID(storeID, customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(storeID, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomers(storeID int64, search string, page, pageSize int) ([]models.Customer, int, error) {
	customers, total, err := s.customerRepo.GetCustomers(storeID, strings.TrimSpace(search), page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) UpdateCustomer(storeID, customerID int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomerByID(storeID, customerID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		if utils.IsEmpty(*req.FullName) {
			return nil, fmt.Errorf("%w: full name cannot be empty if provided", ErrValidation)
		}
		customer.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		phone, err := s.normalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		customer.Phone = phone
	}
	if req.Email != nil {
		customer.Email = trimmedOrNil(req.Email)
	}
	if req.Address != nil {
		customer.Address = trimmedOrNil(req.Address)
	}
	if req.Notes != nil {
		customer.Notes = trimmedOrNil(req.Notes)
	}
	if err := s.customerRepo.UpdateCustomer(s.db, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPhoneExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(storeID, customerID int64) error {
	if err := s.customerRepo.DeleteCustomer(s.db, storeID, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
