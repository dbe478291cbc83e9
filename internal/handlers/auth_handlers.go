package handlers

import (
	"errors"
	"net/http"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Register creates the merchant account together with its store.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Register: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		utils.LogError(err, "Register: Error from authService.Register")
		if errors.Is(err, services.ErrEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondInternal(c, "Failed to register.")
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles merchant login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Login: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", ""))
		} else {
			utils.LogError(err, "Login: Error from authService.Login")
			utils.RespondInternal(c, "Failed to login.")
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.authService.GetUserProfile(userID)
	if err != nil {
		utils.LogError(err, "GetCurrentUser: Error from authService.GetUserProfile", map[string]interface{}{"user_id": userID})
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User profile not found.", err.Error()))
		} else {
			utils.RespondInternal(c, "Failed to retrieve user profile.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "store_id": middleware.StoreID(c)})
}

// CreateStaff adds a staff login to the caller's store.
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req services.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	storeID := middleware.StoreID(c)
	user, err := h.authService.CreateStaff(storeID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "CreateStaff: Error from authService.CreateStaff", map[string]interface{}{"store_id": storeID})
			utils.RespondInternal(c, "Failed to create staff user.")
		}
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListStaff returns the staff logins of the caller's store.
func (h *AuthHandler) ListStaff(c *gin.Context) {
	storeID := middleware.StoreID(c)
	users, err := h.authService.ListStaff(storeID)
	if err != nil {
		utils.LogError(err, "ListStaff: Error from authService.ListStaff", map[string]interface{}{"store_id": storeID})
		utils.RespondInternal(c, "Failed to list staff.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

// Logout is client side for stateless JWTs; the server only acknowledges it.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully. Please discard your token."})
}
