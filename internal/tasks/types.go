package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/pkg/crypto"
	"github.com/hugh/go-storefront/pkg/queue"
)

// Task type names
const (
	TypeAccountActivationMail  = "mail:account_activation"
	TypeEmployeeInvitationMail = "mail:employee_invitation"
	TypePasswordResetMail      = "mail:password_reset"
	TypePurgeExpiredTokens     = "tokens:purge_expired"
)

// MailMaxRetry bounds redelivery of a mail task whose SMTP send failed.
const MailMaxRetry = 5

var mailTypes = map[events.Kind]string{
	events.KindAccountRegistered:      TypeAccountActivationMail,
	events.KindEmployeeInvited:        TypeEmployeeInvitationMail,
	events.KindPasswordResetRequested: TypePasswordResetMail,
}

// KindForType maps a mail task type back to the event it carries.
func KindForType(taskType string) (events.Kind, bool) {
	for kind, typ := range mailTypes {
		if typ == taskType {
			return kind, true
		}
	}
	return "", false
}

// NewMailTask wraps event in a task for the critical queue. The payload is
// the event's JSON, sealed by encryptor when one is configured, since it
// carries a live credential.
func NewMailTask(event events.Event, encryptor *crypto.Encryptor) (*asynq.Task, error) {
	typ, ok := mailTypes[event.Kind()]
	if !ok {
		return nil, fmt.Errorf("no mail task for event %q", event.Kind())
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	sealed, err := encryptor.Seal(data)
	if err != nil {
		return nil, fmt.Errorf("sealing payload: %w", err)
	}

	return asynq.NewTask(typ, sealed,
		asynq.Queue(queue.Critical),
		asynq.MaxRetry(MailMaxRetry),
	), nil
}

// NewPurgeExpiredTokensTask has no payload; the handler sweeps every token table.
func NewPurgeExpiredTokensTask() *asynq.Task {
	return asynq.NewTask(TypePurgeExpiredTokens, nil, asynq.Queue(queue.Maintenance))
}
