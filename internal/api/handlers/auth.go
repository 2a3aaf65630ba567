package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hugh/go-storefront/internal/api/dto"
	"github.com/hugh/go-storefront/internal/api/middleware"
	"github.com/hugh/go-storefront/internal/auth"
)

const sessionCookie = "token"

type AuthHandler struct {
	authService  auth.Authenticator
	logger       *slog.Logger
	sessionTTL   time.Duration
	secureCookie bool
}

// NewAuthHandler builds the account handlers. sessionTTL bounds the login
// cookie and should match the JWT expiry; secureCookie marks it HTTPS only.
func NewAuthHandler(authService auth.Authenticator, logger *slog.Logger, sessionTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		logger:       logger,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.authService.RegisterCustomer(r.Context(), auth.CustomerInput{
		Profile:  toProfile(req.ProfileRequest),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token, ok := requireQuery(w, r, "token")
	if !ok {
		return
	}

	if err := h.authService.ActivateAccount(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Account activated successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    resp.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User:  resp.User,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordChangeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.authService.UpdatePassword(r.Context(), auth.PasswordChangeInput{
		Email:       req.Email,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword always answers 202 for a well-formed request, whether or
// not the address belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token, ok := requireQuery(w, r, "token")
	if !ok {
		return
	}

	var req dto.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), token, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) RegisterEmployee(w http.ResponseWriter, r *http.Request) {
	token, ok := requireQuery(w, r, "token")
	if !ok {
		return
	}

	var req dto.EmployeeRegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.authService.RegisterEmployee(r.Context(), token, auth.EmployeeInput{
		Profile:  toProfile(req.ProfileRequest),
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Me returns the account behind the request's JWT.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, "User with given email exists")
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User does not exist")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInactiveUser):
		writeError(w, http.StatusForbidden, "Account is inactive")
	case errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrInvalidActivationToken),
		errors.Is(err, auth.ErrInvalidRegistrationToken),
		errors.Is(err, auth.ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeInternalError(w, r, h.logger, err)
	}
}

func toProfile(p dto.ProfileRequest) auth.Profile {
	return auth.Profile{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Street:    p.Street,
		City:      p.City,
		State:     p.State,
		ZipCode:   p.ZipCode,
	}
}
