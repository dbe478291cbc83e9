package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(target string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = params
	return c, w
}

func TestParamInt64(t *testing.T) {
	c, _ := testContext("/products/42", gin.Params{{Key: "id", Value: "42"}})
	id, ok := ParamInt64(c, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"0", "-3", "abc", ""} {
		c, w := testContext("/products/x", gin.Params{{Key: "id", Value: raw}})
		_, ok := ParamInt64(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestPagination(t *testing.T) {
	c, _ := testContext("/orders", nil)
	page, size, ok := Pagination(c)
	assert.True(t, ok)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	c, _ = testContext("/orders?page=3&page_size=500", nil)
	page, size, ok = Pagination(c)
	assert.True(t, ok)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)

	c, w := testContext("/orders?page=0", nil)
	_, _, ok = Pagination(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
