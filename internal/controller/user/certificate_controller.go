package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Sifaka/internal/controller"
	"github.com/lshigami/Sifaka/internal/service"
)

type CertificateController struct {
	certificateSvc service.CertificateService
}

func NewCertificateController(certificateSvc service.CertificateService) *CertificateController {
	return &CertificateController{certificateSvc: certificateSvc}
}

// GenerateCertificate godoc
// @Summary Issue the completion certificate
// @Description Idempotent: repeated calls return the same certificate. Requires a completed enrollment at 100% progress.
// @Tags Certificates
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param requester_id query int true "Requesting user ID"
// @Success 201 {object} dto.CertificateResponse
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 422 {object} dto.ErrorResponse "Course not completed"
// @Router /enrollments/{enrollment_id}/certificate [post]
func (ctrl *CertificateController) GenerateCertificate(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	requesterID, ok := controller.ParseUintQuery(c, "requester_id")
	if !ok {
		return
	}

	cert, err := ctrl.certificateSvc.Generate(enrollmentID, requesterID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

// GetCertificate godoc
// @Summary Get an issued certificate
// @Tags Certificates
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param requester_id query int true "Requesting user ID"
// @Success 200 {object} dto.CertificateResponse
// @Failure 404 {object} dto.ErrorResponse "No certificate issued yet"
// @Router /enrollments/{enrollment_id}/certificate [get]
func (ctrl *CertificateController) GetCertificate(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	requesterID, ok := controller.ParseUintQuery(c, "requester_id")
	if !ok {
		return
	}

	cert, err := ctrl.certificateSvc.Get(enrollmentID, requesterID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

// ContentDrift godoc
// @Summary Check for content added after completion
// @Description Compares the current published-lesson count against the completion snapshot. The issued certificate never changes.
// @Tags Certificates
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param requester_id query int true "Requesting user ID"
// @Success 200 {object} dto.ContentDriftResponse
// @Failure 422 {object} dto.ErrorResponse "No completion snapshot exists"
// @Router /enrollments/{enrollment_id}/content-drift [get]
func (ctrl *CertificateController) ContentDrift(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	requesterID, ok := controller.ParseUintQuery(c, "requester_id")
	if !ok {
		return
	}

	drift, err := ctrl.certificateSvc.HasNewContentSinceCompletion(enrollmentID, requesterID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drift)
}

// VerifyCertificate godoc
// @Summary Publicly verify a certificate
// @Description Unauthenticated lookup by certificate ID. Unknown and unissued IDs are indistinguishable.
// @Tags Certificates
// @Produce json
// @Param certificate_id path string true "Certificate ID"
// @Success 200 {object} dto.CertificatePublicView
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /certificates/{certificate_id} [get]
func (ctrl *CertificateController) VerifyCertificate(c *gin.Context) {
	certificateID := c.Param("certificate_id")

	view, err := ctrl.certificateSvc.Verify(certificateID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
