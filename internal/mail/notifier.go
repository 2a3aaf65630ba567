package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hugh/go-storefront/internal/events"
)

const apiPrefix = "/api/ecommerce/v1"

// Pages of the storefront front end that collect a token and POST it back.
const (
	employeeRegistrationPage = "/register/employee"
	passwordResetPage        = "/reset-password"
)

// Notifier turns domain events into emails. Activation links hit the API
// directly since that route is a GET; invitation and reset links open a
// front-end form because their API routes are POST-only.
type Notifier struct {
	sender      Sender
	baseURL     string
	frontendURL string
}

// NewNotifier builds links against baseURL for the API and frontendURL for
// the form pages. An empty frontendURL falls back to baseURL.
func NewNotifier(sender Sender, baseURL, frontendURL string) *Notifier {
	if frontendURL == "" {
		frontendURL = baseURL
	}
	return &Notifier{
		sender:      sender,
		baseURL:     baseURL,
		frontendURL: frontendURL,
	}
}

// Handle sends the email that belongs to event. Its signature matches
// events.Handler so it can subscribe to a Bus directly.
func (n *Notifier) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AccountRegistered:
		return n.sender.Send(ctx, Message{
			To:      e.Email,
			Subject: "Activate your account",
			Data: map[string]any{
				"FirstName": e.FirstName,
				"Link":      withToken(n.baseURL+apiPrefix+"/auth/activate", e.Token),
				"ExpiresAt": e.ExpiresAt,
			},
		}, TemplateActivation)

	case events.EmployeeInvited:
		return n.sender.Send(ctx, Message{
			To:      e.EmployeeEmail,
			Subject: "Employee registration invitation",
			Data: map[string]any{
				"AdminName":  e.AdminName,
				"AdminEmail": e.AdminEmail,
				"Token":      e.Token,
				"Link":       withToken(n.frontendURL+employeeRegistrationPage, e.Token),
				"ExpiresAt":  e.ExpiresAt,
			},
		}, TemplateEmployeeInvitation)

	case events.PasswordResetRequested:
		return n.sender.Send(ctx, Message{
			To:      e.Email,
			Subject: "Reset your password",
			Data: map[string]any{
				"FirstName": e.FirstName,
				"Token":     e.Token,
				"Link":      withToken(n.frontendURL+passwordResetPage, e.Token),
				"ExpiresAt": e.ExpiresAt,
			},
		}, TemplatePasswordReset)
	}

	return fmt.Errorf("no email for event %q", event.Kind())
}

func withToken(link, token string) string {
	return link + "?" + url.Values{"token": {token}}.Encode()
}
