package models

import "time"

// OneTimeToken is embedded by every single-use credential table. Possession
// of Token is the credential; the row is deleted when it is redeemed.
type OneTimeToken struct {
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

// Stamp assigns the token value and its expiry.
func (t *OneTimeToken) Stamp(token string, expiresAt time.Time) {
	t.Token = token
	t.ExpiresAt = expiresAt
}

// Secret returns the opaque token value.
func (t *OneTimeToken) Secret() string {
	return t.Token
}

// Expired reports whether the token can no longer be redeemed at now.
func (t *OneTimeToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ActivationToken proves control of a customer's email address.
type ActivationToken struct {
	Base
	OneTimeToken
	UserID uint64 `gorm:"not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ActivationToken) TableName() string {
	return "activation_tokens"
}

// EmployeeRegistrationToken is an admin-issued invitation for a new employee.
type EmployeeRegistrationToken struct {
	Base
	OneTimeToken
	AdminID       uint64 `gorm:"not null;index" json:"admin_id"`
	Admin         *User  `gorm:"foreignKey:AdminID" json:"-"`
	EmployeeEmail string `gorm:"not null;index" json:"employee_email"`
}

func (EmployeeRegistrationToken) TableName() string {
	return "employee_registration_tokens"
}

// PasswordResetToken authorizes setting a new password without the old one.
type PasswordResetToken struct {
	Base
	OneTimeToken
	UserID uint64 `gorm:"not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
