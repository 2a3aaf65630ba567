package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hugh/go-storefront/internal/auth"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_ValidToken_AuthorizationHeader(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	userID := uint64(12)
	email := "test@example.com"
	role := models.RoleEmployee

	token, err := jwtService.GenerateToken(userID, email, role)
	require.NoError(t, err)

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userID, GetUserID(r.Context()))
		assert.Equal(t, email, GetUserEmail(r.Context()))
		assert.Equal(t, role, GetUserRole(r.Context()))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuth_ValidToken_Cookie(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	token, err := jwtService.GenerateToken(3, "test@example.com", models.RoleAdmin)
	require.NoError(t, err)

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, uint64(3), GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/ecommerce/v1/me", nil)
	req.AddCookie(&http.Cookie{
		Name:  "token",
		Value: token,
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_NoToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/ecommerce/v1/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestAuth_InvalidToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_TokenFromDifferentSecret(t *testing.T) {
	other := auth.NewJWTService("other-secret", 24*time.Hour)
	token, err := other.GenerateToken(1, "test@example.com", models.RoleCustomer)
	require.NoError(t, err)

	handler := Auth(auth.NewJWTService("test-secret", 24*time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContextHelpers_NotInContext(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, GetUserID(ctx))
	assert.Empty(t, GetUserEmail(ctx))
	assert.Empty(t, GetUserRole(ctx))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		allowed  []models.Role
		expected int
	}{
		{"employee may manage catalog", models.RoleEmployee, []models.Role{models.RoleEmployee, models.RoleAdmin}, http.StatusOK},
		{"admin may manage catalog", models.RoleAdmin, []models.Role{models.RoleEmployee, models.RoleAdmin}, http.StatusOK},
		{"customer may not manage catalog", models.RoleCustomer, []models.Role{models.RoleEmployee, models.RoleAdmin}, http.StatusForbidden},
		{"employee may not invite", models.RoleEmployee, []models.Role{models.RoleAdmin}, http.StatusForbidden},
		{"no role", "", []models.Role{models.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("POST", "/api/ecommerce/v1/products", nil)
			if tt.role != "" {
				req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, tt.role))
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequire_CatalogPermission(t *testing.T) {
	handler := Require(models.Role.CanManageCatalog)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, expected := range map[models.Role]int{
		models.RoleAdmin:    http.StatusNoContent,
		models.RoleEmployee: http.StatusNoContent,
		models.RoleCustomer: http.StatusForbidden,
	} {
		req := httptest.NewRequest("DELETE", "/api/ecommerce/v1/products/1", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, role))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, expected, rec.Code, string(role))
	}
}
