// Package mail renders transactional emails from embedded templates and
// hands them to an SMTP transport.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
)

var ErrSendFailed = errors.New("failed to send email")

// Message is what a caller wants sent. Data feeds the template.
type Message struct {
	From    string
	To      string
	Subject string
	Data    map[string]any
}

// Envelope is a rendered message ready for delivery.
type Envelope struct {
	From    string
	To      string
	Subject string
	HTML    string
}

type Transport interface {
	Deliver(ctx context.Context, env Envelope) error
}

// Sender is satisfied by Dispatcher.
type Sender interface {
	Send(ctx context.Context, msg Message, templateName string) error
}

type Dispatcher struct {
	transport Transport
	from      string
	templates map[string]*template.Template
}

// NewDispatcher loads the embedded templates. from is used for messages
// that don't set their own sender.
func NewDispatcher(transport Transport, from string) (*Dispatcher, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading mail templates: %w", err)
	}

	return &Dispatcher{
		transport: transport,
		from:      from,
		templates: templates,
	}, nil
}

// Send renders templateName with msg.Data and delivers the result. Any
// failure, rendering or delivery, is reported as ErrSendFailed.
func (d *Dispatcher) Send(ctx context.Context, msg Message, templateName string) error {
	tmpl, ok := d.templates[templateName]
	if !ok {
		return fmt.Errorf("%w: unknown template %q", ErrSendFailed, templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, msg.Data); err != nil {
		return fmt.Errorf("%w: rendering %s: %w", ErrSendFailed, templateName, err)
	}

	from := msg.From
	if from == "" {
		from = d.from
	}

	env := Envelope{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    body.String(),
	}

	if err := d.transport.Deliver(ctx, env); err != nil {
		return fmt.Errorf("%w: delivering to %s: %w", ErrSendFailed, msg.To, err)
	}

	return nil
}
