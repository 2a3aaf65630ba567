package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string          `json:"email" validate:"required,email"`
	Name     string          `json:"name" validate:"required,notblank,max=10"`
	Stock    *int            `json:"stock" validate:"required,min=0,max=2147483647"`
	Price    decimal.Decimal `json:"price" validate:"required,gt=0,lte=9999999999.99,decimal2"`
	Password string          `json:"password" validate:"required,min=8"`
	Verify   string          `json:"verify_password" validate:"eqfield=Password"`
	Gender   string          `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
}

func intPtr(i int) *int { return &i }

func validSample() sample {
	return sample{
		Email:    "user@example.com",
		Name:     "Widget",
		Stock:    intPtr(0),
		Price:    decimal.RequireFromString("0.01"),
		Password: "longenough",
		Verify:   "longenough",
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(validSample()))
}

func TestStruct_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sample)
		field   string
		message string
	}{
		{"invalid email", func(s *sample) { s.Email = "user@" }, "email", "must be a valid email address"},
		{"blank name", func(s *sample) { s.Name = "   " }, "name", "must not be blank"},
		{"long name", func(s *sample) { s.Name = "abcdefghijk" }, "name", "must be at most 10 characters"},
		{"missing stock", func(s *sample) { s.Stock = nil }, "stock", "is required"},
		{"negative stock", func(s *sample) { s.Stock = intPtr(-1) }, "stock", "must be at least 0"},
		{"negative price", func(s *sample) { s.Price = decimal.RequireFromString("-2") }, "price", "must be greater than 0"},
		{"zero price", func(s *sample) { s.Price = decimal.Zero }, "price", "is required"},
		{"sub-cent price", func(s *sample) { s.Price = decimal.RequireFromString("0.001") }, "price", "must have at most 2 decimal places"},
		{"price too large", func(s *sample) { s.Price = decimal.RequireFromString("12345678901234.5") }, "price", "must be at most 9999999999.99"},
		{"stock beyond int32", func(s *sample) { s.Stock = intPtr(3000000000) }, "stock", "must be at most 2147483647"},
		{"short password", func(s *sample) { s.Password = "short"; s.Verify = "short" }, "password", "must be at least 8 characters"},
		{"mismatched verify", func(s *sample) { s.Verify = "different1" }, "verify_password", "must match password"},
		{"unknown gender", func(s *sample) { s.Gender = "X" }, "gender", "must be one of MALE, FEMALE, OTHER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			fields := Struct(s)
			assert.Len(t, fields, 1)
			assert.Equal(t, tt.message, fields[tt.field])
		})
	}
}

func TestStruct_PriceBounds(t *testing.T) {
	for _, raw := range []string{"0.01", "19.9", "19.99", "100", "9999999999.99"} {
		t.Run(raw, func(t *testing.T) {
			s := validSample()
			s.Price = decimal.RequireFromString(raw)
			assert.Nil(t, Struct(s))
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
