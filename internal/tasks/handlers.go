package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/tokens"
	"github.com/hugh/go-storefront/pkg/crypto"
	"gorm.io/gorm"
)

// Notifier sends the email for an event. *mail.Notifier satisfies it.
type Notifier interface {
	Handle(ctx context.Context, event events.Event) error
}

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Handler struct {
	logger    *slog.Logger
	encryptor *crypto.Encryptor
	notifier  Notifier
	purgers   map[string]purger
}

func NewHandler(db *gorm.DB, logger *slog.Logger, encryptor *crypto.Encryptor, notifier Notifier) *Handler {
	return &Handler{
		logger:    logger,
		encryptor: encryptor,
		notifier:  notifier,
		// TTL is irrelevant for purging.
		purgers: map[string]purger{
			"activation_tokens":            tokens.NewStore[models.ActivationToken](db, 0),
			"employee_registration_tokens": tokens.NewStore[models.EmployeeRegistrationToken](db, 0),
			"password_reset_tokens":        tokens.NewStore[models.PasswordResetToken](db, 0),
		},
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAccountActivationMail, h.HandleMail)
	mux.HandleFunc(TypeEmployeeInvitationMail, h.HandleMail)
	mux.HandleFunc(TypePasswordResetMail, h.HandleMail)
	mux.HandleFunc(TypePurgeExpiredTokens, h.HandlePurgeExpiredTokens)
}

// HandleMail opens and decodes the event in t and sends its email. Payloads
// that can't be read are never retried; send failures are.
func (h *Handler) HandleMail(ctx context.Context, t *asynq.Task) error {
	kind, ok := KindForType(t.Type())
	if !ok {
		return fmt.Errorf("unknown mail task %q: %w", t.Type(), asynq.SkipRetry)
	}

	data, err := h.encryptor.Open(t.Payload())
	if err != nil {
		return fmt.Errorf("open payload: %v: %w", err, asynq.SkipRetry)
	}

	event, err := events.Decode(kind, data)
	if err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.notifier.Handle(ctx, event); err != nil {
		return err
	}

	h.logger.Info("sent mail", "type", t.Type())
	return nil
}

// HandlePurgeExpiredTokens deletes expired rows from every token table.
func (h *Handler) HandlePurgeExpiredTokens(ctx context.Context, _ *asynq.Task) error {
	var total int64
	for table, p := range h.purgers {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purging %s: %w", table, err)
		}
		if n > 0 {
			h.logger.Info("purged expired tokens", "table", table, "count", n)
		}
		total += n
	}

	h.logger.Debug("token purge finished", "total", total)
	return nil
}
