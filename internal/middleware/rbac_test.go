package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/helpdesk-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, allowed ...models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	handler := RequireRoles(allowed...)
	handler(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, models.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesBlocksOtherRole(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, models.RoleAdmin)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesBlocksMissingClaims(t *testing.T) {
	w := performRBAC(t, nil, models.RoleAdmin)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
