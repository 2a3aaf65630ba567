package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/go-storefront/internal/admin"
	"github.com/hugh/go-storefront/internal/api/dto"
	"github.com/hugh/go-storefront/internal/api/middleware"
)

type AdminHandler struct {
	inviter admin.Inviter
	logger  *slog.Logger
}

func NewAdminHandler(inviter admin.Inviter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{inviter: inviter, logger: logger}
}

// CreateEmployeeRegistrationToken invites an employee on behalf of the
// admin identified by the request's JWT.
func (h *AdminHandler) CreateEmployeeRegistrationToken(w http.ResponseWriter, r *http.Request) {
	var req dto.EmployeeInvitationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	adminEmail := middleware.GetUserEmail(r.Context())
	if _, err := h.inviter.CreateEmployeeRegistrationToken(r.Context(), adminEmail, req.EmployeeEmail); err != nil {
		switch {
		case errors.Is(err, admin.ErrNotAdmin):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, admin.ErrAdminNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeInternalError(w, r, h.logger, err)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}
