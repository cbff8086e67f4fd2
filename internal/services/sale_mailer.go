package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
	"github.com/google/uuid"
)

// transactionalEmailSender is the part of the Brevo client the mailer uses
type transactionalEmailSender interface {
	SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error)
}

// SaleMailer e-mails the shop owner when a payment completes
type SaleMailer struct {
	sender    transactionalEmailSender
	FromEmail string
	FromName  string
	NotifyTo  string
}

// NewSaleMailer creates a Brevo backed mailer. Without an API key or a
// recipient the mailer does nothing.
func NewSaleMailer(apiKey, fromEmail, fromName, notifyTo string) *SaleMailer {
	m := &SaleMailer{FromEmail: fromEmail, FromName: fromName, NotifyTo: notifyTo}
	if apiKey == "" {
		return m
	}

	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	m.sender = brevo.NewAPIClient(cfg).TransactionalEmailsApi
	return m
}

// Enabled reports whether sale e-mails are sent
func (m *SaleMailer) Enabled() bool {
	return m.sender != nil && m.NotifyTo != "" && m.FromEmail != ""
}

// PaymentCompleted sends the sale notification. Failures are logged only.
func (m *SaleMailer) PaymentCompleted(ctx context.Context, record *models.PaymentRecord) {
	if !m.Enabled() {
		return
	}

	result, _, err := m.sender.SendTransacEmail(ctx, m.buildSaleEmail(record))
	if err != nil {
		logging.Errorf("Failed to send sale email - payment_id: %d, error: %v", record.ID, err)
		return
	}
	logging.Infof("Sale email sent - payment_id: %d, message_id: %s", record.ID, result.MessageId)
}

func (m *SaleMailer) buildSaleEmail(record *models.PaymentRecord) brevo.SendSmtpEmail {
	reference := record.Reference()
	subject := fmt.Sprintf("New sale - KES %d (%s)", record.Amount, reference)

	htmlContent := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<title>New sale</title>
		</head>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<div style="background-color: #f8f9fa; padding: 30px; border-radius: 10px;">
				<h1 style="color: #333; margin-bottom: 20px;">Payment received</h1>
				<p style="color: #666; font-size: 16px;">Amount: <strong>KES %d</strong></p>
				<p style="color: #666; font-size: 16px;">M-Pesa reference: %s</p>
				<p style="color: #666; font-size: 16px;">Phone: %s</p>
				<p style="color: #666; font-size: 16px;">File: #%d</p>
				<p style="color: #999; font-size: 12px; margin-top: 30px;">Payment #%d, confirmed %s</p>
			</div>
		</body>
		</html>
	`, record.Amount, html.EscapeString(reference), html.EscapeString(record.PhoneNumber),
		record.ProjectID, record.ID, record.UpdatedAt.UTC().Format(time.RFC1123))

	textContent := fmt.Sprintf(`
		Payment received

		Amount: KES %d
		M-Pesa reference: %s
		Phone: %s
		File: #%d
	`, record.Amount, reference, record.PhoneNumber, record.ProjectID)

	return brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  m.FromName,
			Email: m.FromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: m.NotifyTo},
		},
		Subject:     subject,
		HtmlContent: htmlContent,
		TextContent: textContent,
		Headers: map[string]interface{}{
			"idempotencyKey": uuid.NewSHA1(uuid.NameSpaceURL, []byte("sale:"+reference)).String(),
		},
		Tags: []string{"sale"},
	}
}
