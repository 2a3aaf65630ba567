package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-storefront/internal/admin"
	"github.com/hugh/go-storefront/internal/api/handlers"
	"github.com/hugh/go-storefront/internal/api/middleware"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/testutil"
	"github.com/hugh/go-storefront/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invitationsPath = "/api/ecommerce/v1/admin/employee-registration-tokens"

func setupAdminTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	svc := admin.NewService(tc.DB, tc.Publisher, util.DiscardLogger(), 48*time.Hour)
	handler := handlers.NewAdminHandler(svc, util.DiscardLogger())

	// No RequireRole here so the service's own admin check is reachable.
	r := chi.NewRouter()
	r.With(middleware.Auth(tc.JWTService)).Post(invitationsPath, handler.CreateEmployeeRegistrationToken)

	return r, tc
}

func TestAdminHandler_CreateEmployeeRegistrationToken(t *testing.T) {
	router, tc := setupAdminTestRouter(t)
	body := map[string]string{"employee_email": "Recruit@Example.com"}

	t.Run("admin invites employee", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", invitationsPath, body, tc.AdminToken))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.Empty(t, rr.Body.String())

		var invite models.EmployeeRegistrationToken
		require.NoError(t, tc.DB.Where("employee_email = ?", "recruit@example.com").First(&invite).Error)
		assert.Equal(t, tc.Admin.ID, invite.AdminID)

		published, ok := tc.Publisher.Last().(events.EmployeeInvited)
		require.True(t, ok)
		assert.Equal(t, invite.Token, published.Token)
	})

	t.Run("employee is forbidden", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", invitationsPath, body, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("unknown admin", func(t *testing.T) {
		ghost := &models.User{Email: "vanished@example.com", Role: models.RoleAdmin}
		ghost.ID = 424242
		token := testutil.GenerateTestToken(t, tc.JWTService, ghost)

		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", invitationsPath, body, token))

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("invalid email", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", invitationsPath, map[string]string{"employee_email": "nope"}, tc.AdminToken))

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})
}
