// Package email provides the email client for sending insight digests.
package email

import (
	"fmt"
	"strings"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/insights"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending digests, allowing for mock
// implementations in tests.
type Service interface {
	SendInsightDigest(toEmail, ownerID string, items []*insights.Insight) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.DigestFromEmail,
	}, nil
}

// SendInsightDigest composes and sends a digest of high-priority insights.
func (c *ResendClient) SendInsightDigest(toEmail, ownerID string, items []*insights.Insight) error {
	if len(items) == 0 {
		return nil
	}

	subject := fmt.Sprintf("ShopMetrics: %d findings need your attention", len(items))

	var body strings.Builder
	body.WriteString("<h2>Customer intelligence digest</h2>")
	body.WriteString("<ul>")
	for _, insight := range items {
		body.WriteString("<li><strong>")
		body.WriteString(insight.Title)
		body.WriteString("</strong><br/>")
		body.WriteString(insight.Description)
		if len(insight.Recommendations) > 0 {
			body.WriteString("<br/><em>")
			body.WriteString(strings.Join(insight.Recommendations, "; "))
			body.WriteString("</em>")
		}
		body.WriteString("</li>")
	}
	body.WriteString("</ul>")

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("ShopMetrics <%s>", c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    body.String(),
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send insight digest via Resend: %w", err)
	}
	return nil
}
