// Package renderer talks to the external certificate rendering service. The
// issuer calls Render before flipping any certificate state, so a render
// failure leaves the enrollment unissued and the operation retriable.
package renderer

import (
	"fmt"
	"time"
)

// RenderRequest is the frozen completion snapshot handed to the renderer.
type RenderRequest struct {
	CertificateID    string    `json:"certificate_id"`
	StudentName      string    `json:"student_name"`
	CourseTitle      string    `json:"course_title"`
	InstructorName   string    `json:"instructor_name"`
	TotalLessons     int       `json:"total_lessons"`
	CompletedLessons int       `json:"completed_lessons"`
	IssuedAt         time.Time `json:"issued_at"`
}

type CertificateRenderer interface {
	// Render produces a durable URL for the certificate document.
	Render(req RenderRequest) (string, error)
}

// LocalRenderer is the fallback when no rendering service is configured; it
// derives a stable URL from the certificate ID.
type LocalRenderer struct{}

func NewLocalRenderer() *LocalRenderer {
	return &LocalRenderer{}
}

func (r *LocalRenderer) Render(req RenderRequest) (string, error) {
	return fmt.Sprintf("/certificates/%s.pdf", req.CertificateID), nil
}
