package services

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/resend/resend-go/v3"
)

type EmailService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	client *resend.Client
}

// NewEmailService returns a mailer; without RESEND_API_KEY it logs instead
// of sending.
func NewEmailService(logger *gecho.Logger, cfg *structs.Config) *EmailService {
	es := &EmailService{
		logger: logger,
		cfg:    cfg,
	}
	if cfg.Email.ApiKey != "" {
		es.client = resend.NewClient(cfg.Email.ApiKey)
		if cfg.Email.BaseURL != "" {
			if u, err := url.Parse(cfg.Email.BaseURL); err == nil {
				es.client.BaseURL = u
			} else {
				logger.Warn("Ignoring invalid RESEND_BASE_URL", gecho.Field("error", err))
			}
		}
	}
	return es
}

func (es *EmailService) SendEmail(ctx context.Context, to []string, subject string, body string) error {
	if es.client == nil {
		es.logger.Debug("Email delivery disabled, skipping", gecho.Field("to", to), gecho.Field("subject", subject))
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    es.cfg.Email.From,
		To:      to,
		Html:    body,
		Subject: subject,
	}

	_, err := es.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		es.logger.Error("Failed to send email", gecho.Field("error", err), gecho.Field("to", to))
		return err
	}

	return nil
}

// SendIntakeConfirmation mails the consignor the reference ids of the items
// that were accepted into their order.
func (es *EmailService) SendIntakeConfirmation(ctx context.Context, customer *tables.Customer, order *tables.Order, items []structs.IntakeItemResult) error {
	var list strings.Builder
	for _, item := range items {
		if item.Status != structs.IntakeItemCreated {
			continue
		}
		fmt.Fprintf(&list, "<li><strong>%s</strong> - %s</li>", html.EscapeString(item.ReferenceId), html.EscapeString(item.Title))
	}
	itemList := list.String()

	trackingLink := fmt.Sprintf("%s/track", es.cfg.Server.FrontendURL)
	name := html.EscapeString(customer.Name)

	emailBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.header { background-color: #2F4F4F; color: white; padding: 20px; text-align: center; }
				.content { padding: 20px; background-color: #f9f9f9; }
				.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
				.divider { margin: 30px 0; border-top: 2px solid #ddd; }
			</style>
		</head>
		<body>
			<div class="container">
				<!-- Dutch Version -->
				<div class="header">
					<h1>We hebben je items ontvangen</h1>
				</div>
				<div class="content">
					<p>Hoi %s,</p>
					<p>Bedankt voor je aanmelding. Je items staan in order <strong>%s</strong>:</p>
					<ul>%s</ul>
					<p>Stuur je items op en volg de status via <a href="%s">%s</a> met je referentienummer.</p>
				</div>

				<div class="divider"></div>

				<!-- English Version -->
				<div class="header">
					<h1>We received your items</h1>
				</div>
				<div class="content">
					<p>Hi %s,</p>
					<p>Thank you for your submission. Your items are in order <strong>%s</strong>:</p>
					<ul>%s</ul>
					<p>Ship your items and follow their status at <a href="%s">%s</a> using your reference number.</p>
				</div>

				<div class="footer">
					<p>Dutch Thrift | Second hand, first class</p>
				</div>
			</div>
		</body>
		</html>
	`, name, order.OrderNumber, itemList, trackingLink, trackingLink,
		name, order.OrderNumber, itemList, trackingLink, trackingLink)

	subject := fmt.Sprintf("Intake bevestiging / Intake confirmation - %s", order.OrderNumber)
	return es.SendEmail(ctx, []string{customer.Email}, subject, emailBody)
}

// SendPasswordSetup mails a one-time link the consignor uses to choose a
// password for the dashboard.
func (es *EmailService) SendPasswordSetup(ctx context.Context, customer *tables.Customer, token string) error {
	link := fmt.Sprintf("%s/set-password?token=%s", es.cfg.Server.FrontendURL, url.QueryEscape(token))
	name := html.EscapeString(customer.Name)
	hours := int(es.cfg.Auth.PasswordTokenTTL.Hours())

	emailBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.header { background-color: #2F4F4F; color: white; padding: 20px; text-align: center; }
				.content { padding: 20px; background-color: #f9f9f9; }
				.button { display: inline-block; padding: 12px 24px; background-color: #2F4F4F; color: white; text-decoration: none; border-radius: 4px; }
				.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
				.divider { margin: 30px 0; border-top: 2px solid #ddd; }
			</style>
		</head>
		<body>
			<div class="container">
				<!-- Dutch Version -->
				<div class="header">
					<h1>Kies je wachtwoord</h1>
				</div>
				<div class="content">
					<p>Hoi %s,</p>
					<p>Met deze link kies je een wachtwoord voor je Dutch Thrift overzicht:</p>
					<p style="text-align: center;"><a href="%s" class="button">Wachtwoord instellen</a></p>
					<p>De link is %d uur geldig en werkt één keer.</p>
				</div>

				<div class="divider"></div>

				<!-- English Version -->
				<div class="header">
					<h1>Choose your password</h1>
				</div>
				<div class="content">
					<p>Hi %s,</p>
					<p>Use this link to choose a password for your Dutch Thrift dashboard:</p>
					<p style="text-align: center;"><a href="%s" class="button">Set password</a></p>
					<p>The link is valid for %d hours and works once.</p>
				</div>

				<div class="footer">
					<p>If you didn't ask for this, you can ignore this email.</p>
				</div>
			</div>
		</body>
		</html>
	`, name, link, hours, name, link, hours)

	return es.SendEmail(ctx, []string{customer.Email}, "Wachtwoord instellen / Set your password", emailBody)
}
