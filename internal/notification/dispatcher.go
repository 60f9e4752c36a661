// Package notification dispatches lifecycle events (enrollment created,
// certificate issued) to students. Dispatch is fire-and-forget and
// at-most-once; a failed send is logged and never rolls back or fails the
// operation that produced the event.
package notification

import "github.com/rs/zerolog/log"

const (
	EventEnrollmentCreated = "enrollment.created"
	EventCertificateIssued = "certificate.issued"
)

type Event struct {
	Type           string
	RecipientEmail string
	RecipientName  string
	CourseTitle    string
	CertificateURL string
}

type Dispatcher interface {
	// Dispatch must not block the caller and must never return the send
	// outcome to it.
	Dispatch(event Event)
}

// LogDispatcher is the fallback when no mail provider is configured.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(event Event) {
	log.Info().
		Str("event", event.Type).
		Str("recipient", event.RecipientEmail).
		Str("course", event.CourseTitle).
		Msg("Notification dispatched (log only)")
}
