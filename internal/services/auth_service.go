package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrValidation         = errors.New("validation failed")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest creates the merchant account together with its store.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FullName  string `json:"full_name" binding:"required"`
	StoreName string `json:"store_name" binding:"required"`
}

// StaffRequest creates a staff login attached to the owner's store.
type StaffRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User  `json:"user"`
	Store       *models.Store `json:"store,omitempty"`
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Register(req RegisterRequest) (*AuthResponse, error)
	Login(req LoginRequest) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
	CreateStaff(storeID int64, req StaffRequest) (*models.User, error)
	ListStaff(storeID int64) ([]models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo  repositories.AuthRepository
	storeRepo repositories.StoreRepository
	db        TxBeginner
	trialDays int
	now       func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, storeRepo repositories.StoreRepository, db TxBeginner, trialDays int) AuthService {
	return &authService{
		authRepo:  authRepo,
		storeRepo: storeRepo,
		db:        db,
		trialDays: trialDays,
		now:       time.Now,
	}
}

// uniqueSlug derives a slug from the store name and appends -2, -3... until free.
func (s *authService) uniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "loja"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := s.storeRepo.SlugExists(slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Register creates the owner and a store on a fresh trial in one transaction.
func (s *authService) Register(req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.IsValidPasswordLength(req.Password, 8) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	slug, err := s.uniqueSlug(req.StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate store slug: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	user := &models.User{
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.RoleOwner,
		IsActive: true,
	}
	if _, err := s.authRepo.CreateUser(tx, user, string(hashedPasswordBytes)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	trialEnds := s.now().AddDate(0, 0, s.trialDays)
	store := &models.Store{
		OwnerID:            user.ID,
		Name:               strings.TrimSpace(req.StoreName),
		Slug:               slug,
		ThemeColor:         "#16a34a",
		DeliveryFee:        models.DeliveryFeeConfig{Type: models.DeliveryFeeFixed},
		Hours:              models.OpeningHours{OpensAt: "08:00", ClosesAt: "18:00", Days: []int{1, 2, 3, 4, 5, 6}, Timezone: "America/Sao_Paulo"},
		LowStockThreshold:  5,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
	}
	if _, err := s.storeRepo.CreateStore(tx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	utils.LogInfo("Merchant registered", map[string]interface{}{"user_id": user.ID, "store_id": store.ID, "slug": store.Slug})
	return s.issueToken(user, store)
}

func (s *authService) issueToken(user *models.User, store *models.Store) (*AuthResponse, error) {
	token, expiresAt, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role, store.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	user.PasswordHash = "" // Clear password hash before returning user details
	return &AuthResponse{User: user, Store: store, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Login handles user login and token generation.
func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	store, err := s.storeFor(user)
	if err != nil {
		return nil, fmt.Errorf("failed to load store for user %d: %w", user.ID, err)
	}
	return s.issueToken(user, store)
}

func (s *authService) storeFor(user *models.User) (*models.Store, error) {
	if user.Role == models.RoleStaff {
		if user.StoreID == nil {
			return nil, repositories.ErrNotFound
		}
		return s.storeRepo.GetStoreByID(*user.StoreID)
	}
	return s.storeRepo.GetStoreByOwnerID(user.ID)
}

// CreateStaff adds a staff login to the store. Staff sign in like owners and get
// the staff role in their token.
func (s *authService) CreateStaff(storeID int64, req StaffRequest) (*models.User, error) {
	if !utils.IsValidPasswordLength(req.Password, 8) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if utils.IsEmpty(req.FullName) {
		return nil, fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.RoleStaff,
		StoreID:  &storeID,
		IsActive: true,
	}
	if _, err := s.authRepo.CreateUser(s.db, user, string(hashed)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create staff user: %w", err)
	}
	utils.LogInfo("Staff user created", map[string]interface{}{"user_id": user.ID, "store_id": storeID})
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ListStaff(storeID int64) ([]models.User, error) {
	users, err := s.authRepo.GetStaffByStore(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return users, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = "" // Ensure password hash is not exposed
	return user, nil
}
