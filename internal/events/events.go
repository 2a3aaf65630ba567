// Package events defines the domain events that trigger notifications and
// the Publisher services use to emit them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindAccountRegistered      Kind = "account.registered"
	KindEmployeeInvited        Kind = "employee.invited"
	KindPasswordResetRequested Kind = "password.reset_requested"
)

type Event interface {
	Kind() Kind
}

// Publisher delivers events to whatever sends the notifications. Publishing
// is fire-and-forget from the caller's point of view.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// AccountRegistered is emitted after a customer account and its activation
// token are committed.
type AccountRegistered struct {
	UserID    uint64    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (AccountRegistered) Kind() Kind { return KindAccountRegistered }

// EmployeeInvited is emitted after an admin issues an employee
// registration token.
type EmployeeInvited struct {
	AdminID       uint64    `json:"admin_id"`
	AdminEmail    string    `json:"admin_email"`
	AdminName     string    `json:"admin_name"`
	EmployeeEmail string    `json:"employee_email"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (EmployeeInvited) Kind() Kind { return KindEmployeeInvited }

// PasswordResetRequested is emitted after a reset token is issued.
type PasswordResetRequested struct {
	UserID    uint64    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (PasswordResetRequested) Kind() Kind { return KindPasswordResetRequested }

// Decode rebuilds an event of the given kind from its JSON form.
func Decode(kind Kind, data []byte) (Event, error) {
	switch kind {
	case KindAccountRegistered:
		var e AccountRegistered
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		return e, nil
	case KindEmployeeInvited:
		var e EmployeeInvited
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		return e, nil
	case KindPasswordResetRequested:
		var e PasswordResetRequested
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", kind)
}
