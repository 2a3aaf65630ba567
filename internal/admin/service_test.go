package admin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugh/go-storefront/internal/admin"
	"github.com/hugh/go-storefront/internal/auth"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/testutil"
	"github.com/hugh/go-storefront/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateEmployeeRegistrationToken(t *testing.T) {
	ctx := context.Background()

	t.Run("admin issues invitation", func(t *testing.T) {
		ts := testutil.NewTestContext(t)
		svc := admin.NewService(ts.DB, ts.Publisher, util.DiscardLogger(), 72*time.Hour)

		invitation, err := svc.CreateEmployeeRegistrationToken(ctx, ts.Admin.Email, "New.Hire@Example.com")
		require.NoError(t, err)
		assert.Equal(t, ts.Admin.ID, invitation.AdminID)
		assert.Equal(t, "new.hire@example.com", invitation.EmployeeEmail)
		assert.NotEmpty(t, invitation.Token)
		assert.WithinDuration(t, time.Now().Add(72*time.Hour), invitation.ExpiresAt, time.Minute)

		var stored models.EmployeeRegistrationToken
		require.NoError(t, ts.DB.Where("token = ?", invitation.Token).First(&stored).Error)
		assert.Equal(t, ts.Admin.ID, stored.AdminID)

		event, ok := ts.Publisher.Last().(events.EmployeeInvited)
		require.True(t, ok)
		assert.Equal(t, ts.Admin.ID, event.AdminID)
		assert.Equal(t, ts.Admin.Email, event.AdminEmail)
		assert.Equal(t, ts.Admin.FullName(), event.AdminName)
		assert.Equal(t, "new.hire@example.com", event.EmployeeEmail)
		assert.Equal(t, invitation.Token, event.Token)
	})

	t.Run("unknown admin", func(t *testing.T) {
		ts := testutil.NewTestContext(t)
		svc := admin.NewService(ts.DB, ts.Publisher, util.DiscardLogger(), time.Hour)

		_, err := svc.CreateEmployeeRegistrationToken(ctx, "ghost@example.com", "x@example.com")
		assert.ErrorIs(t, err, admin.ErrAdminNotFound)
		assert.Empty(t, ts.Publisher.Events())
	})

	t.Run("non-admins are refused", func(t *testing.T) {
		ts := testutil.NewTestContext(t)
		svc := admin.NewService(ts.DB, ts.Publisher, util.DiscardLogger(), time.Hour)

		for _, u := range []*models.User{ts.Employee, ts.Customer} {
			_, err := svc.CreateEmployeeRegistrationToken(ctx, u.Email, "x@example.com")
			assert.ErrorIs(t, err, admin.ErrNotAdmin)
		}

		var count int64
		require.NoError(t, ts.DB.Model(&models.EmployeeRegistrationToken{}).Count(&count).Error)
		assert.Zero(t, count)
		assert.Empty(t, ts.Publisher.Events())
	})

	t.Run("publish failure keeps invitation", func(t *testing.T) {
		ts := testutil.NewTestContext(t)
		ts.Publisher.Err = errors.New("queue down")
		svc := admin.NewService(ts.DB, ts.Publisher, util.DiscardLogger(), time.Hour)

		invitation, err := svc.CreateEmployeeRegistrationToken(ctx, ts.Admin.Email, "x@example.com")
		require.NoError(t, err)
		assert.NotZero(t, invitation.ID)
	})
}

func TestService_Bootstrap(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := admin.NewService(db, nil, util.DiscardLogger(), time.Hour)

	input := admin.AdminInput{
		FirstName: "Ada",
		LastName:  "Admin",
		Email:     "Admin@Example.com",
		Password:  "admin-password",
	}

	user, err := svc.Bootstrap(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.True(t, auth.CheckPassword("admin-password", user.PasswordHash))

	_, err = svc.Bootstrap(ctx, input)
	assert.ErrorIs(t, err, admin.ErrAdminExists)
}
