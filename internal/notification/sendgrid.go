package notification

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridDispatcher emails lifecycle events through SendGrid. Sends run on
// their own goroutine; failures are logged and dropped.
type SendGridDispatcher struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridDispatcher(apiKey, fromEmail, fromName string) *SendGridDispatcher {
	return &SendGridDispatcher{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (d *SendGridDispatcher) Dispatch(event Event) {
	go func() {
		subject, body := renderEvent(event)
		from := mail.NewEmail(d.fromName, d.fromEmail)
		to := mail.NewEmail(event.RecipientName, event.RecipientEmail)
		message := mail.NewSingleEmail(from, subject, to, body, body)

		resp, err := d.client.Send(message)
		if err != nil {
			log.Warn().Err(err).Str("event", event.Type).Str("recipient", event.RecipientEmail).
				Msg("Notification send failed")
			return
		}
		if resp.StatusCode >= 400 {
			log.Warn().Int("status", resp.StatusCode).Str("event", event.Type).
				Msg("Notification send rejected")
			return
		}
		log.Info().Str("event", event.Type).Str("recipient", event.RecipientEmail).
			Msg("Notification sent")
	}()
}

func renderEvent(event Event) (subject, body string) {
	switch event.Type {
	case EventEnrollmentCreated:
		subject = fmt.Sprintf("You are enrolled in %s", event.CourseTitle)
		body = fmt.Sprintf("Hi %s, your enrollment in %s is confirmed. Good luck!",
			event.RecipientName, event.CourseTitle)
	case EventCertificateIssued:
		subject = fmt.Sprintf("Your certificate for %s", event.CourseTitle)
		body = fmt.Sprintf("Hi %s, congratulations on completing %s! Your certificate: %s",
			event.RecipientName, event.CourseTitle, event.CertificateURL)
	default:
		subject = event.Type
		body = event.Type
	}
	return subject, body
}
