package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugh/go-storefront/internal/auth"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/tokens"
	"gorm.io/gorm"
)

var (
	ErrAdminNotFound = errors.New("user does not exist")
	ErrNotAdmin      = errors.New("you must be an admin to create employee registration token")
	ErrAdminExists   = errors.New("admin with given email exists")
)

// Inviter issues employee registration invitations.
type Inviter interface {
	CreateEmployeeRegistrationToken(ctx context.Context, adminEmail, employeeEmail string) (*models.EmployeeRegistrationToken, error)
}

var _ Inviter = (*Service)(nil)

type Service struct {
	db          *gorm.DB
	publisher   events.Publisher
	logger      *slog.Logger
	invitations *tokens.Store[models.EmployeeRegistrationToken, *models.EmployeeRegistrationToken]
}

func NewService(db *gorm.DB, publisher events.Publisher, logger *slog.Logger, invitationTTL time.Duration) *Service {
	return &Service{
		db:          db,
		publisher:   publisher,
		logger:      logger,
		invitations: tokens.NewStore[models.EmployeeRegistrationToken](db, invitationTTL),
	}
}

// CreateEmployeeRegistrationToken issues an invitation for employeeEmail on
// behalf of the admin identified by adminEmail and announces it so the
// invitation email is sent.
func (s *Service) CreateEmployeeRegistrationToken(ctx context.Context, adminEmail, employeeEmail string) (*models.EmployeeRegistrationToken, error) {
	var admin models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", auth.NormalizeEmail(adminEmail)).
		First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("finding admin: %w", err)
	}

	if !admin.Role.CanInviteEmployees() {
		return nil, ErrNotAdmin
	}

	invitation := &models.EmployeeRegistrationToken{
		AdminID:       admin.ID,
		EmployeeEmail: auth.NormalizeEmail(employeeEmail),
	}
	if err := s.invitations.Issue(ctx, invitation); err != nil {
		return nil, err
	}

	s.logger.Info("employee invited",
		"admin_id", admin.ID,
		"employee_email", invitation.EmployeeEmail,
	)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.EmployeeInvited{
			AdminID:       admin.ID,
			AdminEmail:    admin.Email,
			AdminName:     admin.FullName(),
			EmployeeEmail: invitation.EmployeeEmail,
			Token:         invitation.Token,
			ExpiresAt:     invitation.ExpiresAt,
		})
		if err != nil {
			s.logger.Error("failed to publish event", "kind", events.KindEmployeeInvited, "error", err)
		}
	}

	return invitation, nil
}

// AdminInput describes the account Bootstrap creates.
type AdminInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Bootstrap creates an active ADMIN account. Admins can't register over
// HTTP, so this is how the first one comes to exist.
func (s *Service) Bootstrap(ctx context.Context, input AdminInput) (*models.User, error) {
	email := auth.NormalizeEmail(input.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return nil, ErrAdminExists
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("creating admin: %w", err)
	}

	s.logger.Info("admin created", "id", user.ID, "email", user.Email)
	return user, nil
}
