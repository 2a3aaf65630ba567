package dto

import "github.com/hugh/go-storefront/internal/database/models"

// ProfileRequest is the personal data shared by customer and employee
// registration.
type ProfileRequest struct {
	FirstName string        `json:"first_name" validate:"required,notblank,max=100"`
	LastName  string        `json:"last_name" validate:"required,notblank,max=100"`
	Gender    models.Gender `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Phone     string        `json:"phone" validate:"omitempty,max=32"`
	Street    string        `json:"street" validate:"omitempty,max=255"`
	City      string        `json:"city" validate:"omitempty,max=100"`
	State     string        `json:"state" validate:"omitempty,max=100"`
	ZipCode   string        `json:"zip_code" validate:"omitempty,max=16"`
}

type RegisterRequest struct {
	ProfileRequest
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type EmployeeRegisterRequest struct {
	ProfileRequest
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordChangeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password       string `json:"password" validate:"required,min=8,max=72"`
	VerifyPassword string `json:"verify_password" validate:"required,min=8,max=72,eqfield=Password"`
}

type EmployeeInvitationRequest struct {
	EmployeeEmail string `json:"employee_email" validate:"required,email,max=254"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}
