package models

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// CanManageCatalog reports whether the role may add, change or remove products.
func (r Role) CanManageCatalog() bool {
	switch r {
	case RoleEmployee, RoleAdmin:
		return true
	case RoleCustomer:
		return false
	}
	return false
}

// CanInviteEmployees reports whether the role may issue employee
// registration tokens.
func (r Role) CanInviteEmployees() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleEmployee, RoleCustomer:
		return false
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

type User struct {
	Base
	FirstName    string `gorm:"not null" json:"first_name"`
	LastName     string `gorm:"not null" json:"last_name"`
	Gender       Gender `gorm:"type:varchar(16)" json:"gender,omitempty"`
	Phone        string `json:"phone"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Role         Role   `gorm:"type:varchar(16);not null" json:"role"`
	// No gorm default: a zero-value false must reach the database as-is.
	Active bool `gorm:"not null" json:"active"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
