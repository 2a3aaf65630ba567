package auth

import (
	"context"

	"github.com/hugh/go-storefront/internal/database/models"
)

// Authenticator defines the account operations exposed over HTTP.
type Authenticator interface {
	RegisterCustomer(ctx context.Context, input CustomerInput) (*models.User, error)
	ActivateAccount(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, input PasswordChangeInput) error
	RegisterEmployee(ctx context.Context, token string, input EmployeeInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID uint64, email string, role models.Role) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator = (*Service)(nil)
	_ TokenService  = (*JWTService)(nil)
)
