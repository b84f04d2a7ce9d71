package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WhatsAppService delivers template messages through a WhatsApp Business
// API endpoint.
type WhatsAppService struct {
	apiURL     string
	apiToken   string
	httpClient *http.Client
}

// NewWhatsAppService creates a new WhatsApp service instance
func NewWhatsAppService(apiURL, apiToken string) *WhatsAppService {
	return &WhatsAppService{
		apiURL:   apiURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsConfigured checks if the WhatsApp API is configured
func (w *WhatsAppService) IsConfigured() bool {
	return w.apiURL != "" && w.apiToken != ""
}

type whatsAppMessage struct {
	To           string                 `json:"to"`
	TemplateName string                 `json:"template_name"`
	TemplateData map[string]interface{} `json:"template_data"`
}

// SendTemplate sends a template message to a phone number.
func (w *WhatsAppService) SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}) error {
	if !w.IsConfigured() {
		return fmt.Errorf("WhatsApp API not configured")
	}

	payload, err := json.Marshal(whatsAppMessage{
		To:           to,
		TemplateName: templateName,
		TemplateData: data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal WhatsApp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build WhatsApp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("WhatsApp API returned status %d", resp.StatusCode)
	}

	return nil
}
