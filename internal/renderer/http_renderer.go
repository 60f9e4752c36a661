package renderer

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type renderResponse struct {
	URL string `json:"url"`
}

// HTTPRenderer posts the snapshot to the rendering service and expects a
// durable document URL back.
type HTTPRenderer struct {
	client  *resty.Client
	baseURL string
}

func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	return &HTTPRenderer{client: client, baseURL: baseURL}
}

func (r *HTTPRenderer) Render(req RenderRequest) (string, error) {
	var out renderResponse
	resp, err := r.client.R().
		SetBody(req).
		SetResult(&out).
		Post(r.baseURL + "/render")
	if err != nil {
		log.Error().Err(err).Str("certificateID", req.CertificateID).Msg("Certificate render request failed")
		return "", fmt.Errorf("certificate renderer unavailable: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("certificateID", req.CertificateID).
			Msg("Certificate renderer returned error status")
		return "", fmt.Errorf("certificate renderer returned status %d", resp.StatusCode())
	}
	if out.URL == "" {
		return "", fmt.Errorf("certificate renderer returned empty URL")
	}
	return out.URL, nil
}
