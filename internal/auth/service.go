package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/tokens"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrUserExists               = errors.New("user with given email exists")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInactiveUser             = errors.New("user is inactive")
	ErrPasswordMismatch         = errors.New("old password is incorrect")
	ErrInvalidActivationToken   = errors.New("invalid activation token")
	ErrInvalidRegistrationToken = errors.New("invalid employee registration token")
	ErrInvalidResetToken        = errors.New("invalid password reset token")
)

// Config holds the lifetimes of the tokens this service issues.
type Config struct {
	ActivationTTL time.Duration
	ResetTTL      time.Duration
}

type Service struct {
	db          *gorm.DB
	jwt         *JWTService
	publisher   events.Publisher
	logger      *slog.Logger
	activations *tokens.Store[models.ActivationToken, *models.ActivationToken]
	invitations *tokens.Store[models.EmployeeRegistrationToken, *models.EmployeeRegistrationToken]
	resets      *tokens.Store[models.PasswordResetToken, *models.PasswordResetToken]
}

func NewService(db *gorm.DB, jwt *JWTService, publisher events.Publisher, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		db:          db,
		jwt:         jwt,
		publisher:   publisher,
		logger:      logger,
		activations: tokens.NewStore[models.ActivationToken](db, cfg.ActivationTTL),
		// Invitations are issued by the admin service; only redeemed here.
		invitations: tokens.NewStore[models.EmployeeRegistrationToken](db, 0),
		resets:      tokens.NewStore[models.PasswordResetToken](db, cfg.ResetTTL),
	}
}

// Profile is the personal data shared by every account type.
type Profile struct {
	FirstName string
	LastName  string
	Gender    models.Gender
	Phone     string
	Street    string
	City      string
	State     string
	ZipCode   string
}

type CustomerInput struct {
	Profile
	Email    string
	Password string
}

type EmployeeInput struct {
	Profile
	Password string
}

type PasswordChangeInput struct {
	Email       string
	OldPassword string
	NewPassword string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterCustomer creates an inactive CUSTOMER account together with exactly
// one activation token, then announces the registration so the activation
// email goes out.
func (s *Service) RegisterCustomer(ctx context.Context, input CustomerInput) (*models.User, error) {
	email := NormalizeEmail(input.Email)

	taken, err := emailTaken(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := newUser(input.Profile, email, hash, models.RoleCustomer, false)
	var activation models.ActivationToken

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		activation = models.ActivationToken{UserID: user.ID}
		return s.activations.WithTx(tx).Issue(ctx, &activation)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("registering customer: %w", err)
	}

	s.publish(ctx, events.AccountRegistered{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Token:     activation.Token,
		ExpiresAt: activation.ExpiresAt,
	})

	return &user, nil
}

// ActivateAccount redeems an activation token and marks its account active.
func (s *Service) ActivateAccount(ctx context.Context, token string) error {
	return redeem(ctx, s.db, s.activations, token, ErrInvalidActivationToken,
		func(tx *gorm.DB, activation *models.ActivationToken) error {
			return tx.Model(&models.User{}).
				Where("id = ?", activation.UserID).
				Update("active", true).Error
		})
}

// UpdatePassword replaces the password of a user who knows the current one.
func (s *Service) UpdatePassword(ctx context.Context, input PasswordChangeInput) error {
	user, err := s.findByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		return err
	}

	if !CheckPassword(input.OldPassword, user.PasswordHash) {
		return ErrPasswordMismatch
	}

	return s.setPassword(ctx, s.db, user.ID, input.NewPassword)
}

// RegisterEmployee redeems an employee registration token and creates an
// active EMPLOYEE account for the invited email address. The invitation is
// left untouched when the email is already registered.
func (s *Service) RegisterEmployee(ctx context.Context, token string, input EmployeeInput) (*models.User, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = redeem(ctx, s.db, s.invitations, token, ErrInvalidRegistrationToken,
		func(tx *gorm.DB, invite *models.EmployeeRegistrationToken) error {
			email := NormalizeEmail(invite.EmployeeEmail)
			taken, err := emailTaken(ctx, tx, email)
			if err != nil {
				return err
			}
			if taken {
				return ErrUserExists
			}

			// The invitation was delivered to this address, which proves control of it.
			user = newUser(input.Profile, email, hash, models.RoleEmployee, true)
			return tx.Create(&user).Error
		})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("employee registered", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			CheckPassword(input.Password, dummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrInactiveUser
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

// RequestPasswordReset issues a reset token for a known email. Unknown
// addresses are ignored so the endpoint can't be used to probe accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	reset := models.PasswordResetToken{UserID: user.ID}
	if err := s.resets.Issue(ctx, &reset); err != nil {
		return err
	}

	s.publish(ctx, events.PasswordResetRequested{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Token:     reset.Token,
		ExpiresAt: reset.ExpiresAt,
	})
	return nil
}

// ResetPassword redeems a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return redeem(ctx, s.db, s.resets, token, ErrInvalidResetToken,
		func(tx *gorm.DB, reset *models.PasswordResetToken) error {
			return tx.Model(&models.User{}).
				Where("id = ?", reset.UserID).
				Update("password_hash", hash).Error
		})
}

func (s *Service) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) setPassword(ctx context.Context, db *gorm.DB, userID uint64, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).Error
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	// The rows are already committed; a lost notification is logged rather
	// than turned into a failed request.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "kind", event.Kind(), "error", err)
	}
}

// redeem consumes token and runs apply in the same transaction. Missing and
// expired tokens are reported as invalid; an expired token is deleted even
// though the call fails.
func redeem[T any, PT interface {
	*T
	tokens.Credential
}](ctx context.Context, db *gorm.DB, store *tokens.Store[T, PT], token string, invalid error, apply func(tx *gorm.DB, cred PT) error) error {
	var expired bool

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cred, err := store.WithTx(tx).Redeem(ctx, token)
		if errors.Is(err, tokens.ErrTokenExpired) {
			expired = true
			return nil
		}
		if err != nil {
			return err
		}
		return apply(tx, cred)
	})

	switch {
	case expired:
		return invalid
	case errors.Is(err, tokens.ErrTokenNotFound):
		return invalid
	case err != nil:
		return err
	}
	return nil
}

func emailTaken(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return count > 0, nil
}

func newUser(p Profile, email, hash string, role models.Role, active bool) models.User {
	return models.User{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Gender:       p.Gender,
		Phone:        p.Phone,
		Email:        email,
		PasswordHash: hash,
		Street:       p.Street,
		City:         p.City,
		State:        p.State,
		ZipCode:      p.ZipCode,
		Role:         role,
		Active:       active,
	}
}

// NormalizeEmail lower-cases and trims an address before it is stored or
// compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
