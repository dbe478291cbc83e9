package middleware

import (
	"errors"
	"net/http"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	contextStore = "store"
	// CartTokenHeader carries the shopper's cart token.
	CartTokenHeader = "X-Cart-Token"
)

// ResolveStore loads the store named by the :slug path parameter.
func ResolveStore(stores services.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, err := stores.GetStoreBySlug(c.Param("slug"))
		if err != nil {
			if errors.Is(err, services.ErrStoreNotFound) {
				utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Store not found", ""))
				return
			}
			utils.LogError(err, "Failed to resolve storefront", map[string]interface{}{"slug": c.Param("slug")})
			utils.RespondInternal(c, "Failed to load store")
			return
		}
		c.Set(contextStore, store)
		c.Set(ContextStoreID, store.ID)
		c.Next()
	}
}

// Store returns the store resolved by ResolveStore.
func Store(c *gin.Context) *models.Store {
	v, _ := c.Get(contextStore)
	store, _ := v.(*models.Store)
	return store
}
