package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.ConfigureJWT("middleware-secret", time.Hour)
}

type fakeSubscriptions struct {
	decision models.AccessDecision
	storeID  int64
}

func (f *fakeSubscriptions) CheckStoreAccess(storeID int64) models.AccessDecision {
	f.storeID = storeID
	return f.decision
}

func adminEngine(subs *fakeSubscriptions, roles ...string) *gin.Engine {
	r := gin.New()
	g := r.Group("/admin", AuthMiddleware(), SubscriptionGate(subs))
	if len(roles) > 0 {
		g.Use(RoleAuthMiddleware(roles...))
	}
	g.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"store_id": StoreID(c), "user_id": UserID(c)})
	})
	return r
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, _, err := utils.GenerateAccessToken(5, "staff@example.com", role, 9)
	require.NoError(t, err)
	return "Bearer " + token
}

func get(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	subs := &fakeSubscriptions{decision: models.AccessDecision{Allowed: true, Plan: models.PlanPro}}
	r := adminEngine(subs)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-jwt").Code)

	w := get(r, bearer(t, models.RoleOwner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"store_id":9,"user_id":5}`, w.Body.String())
	assert.Equal(t, int64(9), subs.storeID)
}

func TestSubscriptionGateBlocksLapsedStores(t *testing.T) {
	days := 0
	subs := &fakeSubscriptions{decision: models.AccessDecision{Allowed: false, Plan: models.PlanTrial, DaysLeft: &days}}
	w := get(adminEngine(subs), bearer(t, models.RoleOwner))

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	var body struct {
		Error        utils.APIError        `json:"error"`
		Subscription models.AccessDecision `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, utils.ErrCodePaymentRequired, body.Error.Code)
	assert.False(t, body.Subscription.Allowed)
	assert.Equal(t, models.PlanTrial, body.Subscription.Plan)
}

func TestRoleAuthMiddleware(t *testing.T) {
	subs := &fakeSubscriptions{decision: models.AccessDecision{Allowed: true}}
	r := adminEngine(subs, models.RoleOwner)

	assert.Equal(t, http.StatusForbidden, get(r, bearer(t, models.RoleStaff)).Code)
	assert.Equal(t, http.StatusOK, get(r, bearer(t, "OWNER")).Code)
}
