package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"sitestock/internal/core/appctx"
)

func requireRoleRequest(t *testing.T, user *appctx.UserContext, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		}
		c.Next()
	})
	r.GET("/guarded", RequireRole(roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	t.Run("matching role passes", func(t *testing.T) {
		w := requireRoleRequest(t, &appctx.UserContext{UserID: "u1", Roles: []string{"storekeeper"}}, "storekeeper")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("any of several roles passes", func(t *testing.T) {
		w := requireRoleRequest(t, &appctx.UserContext{UserID: "u1", Roles: []string{"approver"}}, "storekeeper", "approver")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("admin bypasses role checks", func(t *testing.T) {
		w := requireRoleRequest(t, &appctx.UserContext{UserID: "u1", IsAdmin: true}, "storekeeper")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		w := requireRoleRequest(t, &appctx.UserContext{UserID: "u1", Roles: []string{"viewer"}}, "storekeeper")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		w := requireRoleRequest(t, nil, "storekeeper")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
