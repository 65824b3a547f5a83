package mailer

import (
	"context"
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/raahiforwork/raahi-api/config"
	templates "github.com/raahiforwork/raahi-api/templates/html"
)

// SendGridMailer relays through the SendGrid HTTP API instead of SMTP
type SendGridMailer struct {
	apiKey   string
	from     string
	fromName string
}

// NewSendGridMailer reads the API key from the environment
func NewSendGridMailer(conf *config.Config) (*SendGridMailer, error) {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
	}
	if conf.MailFrom == "" {
		return nil, fmt.Errorf("EMAIL_USER is not set")
	}
	return &SendGridMailer{
		apiKey:   apiKey,
		from:     conf.MailFrom,
		fromName: conf.MailFromName,
	}, nil
}

// SendVerification sends the verification email through SendGrid
func (m *SendGridMailer) SendVerification(ctx context.Context, email VerificationEmail) (*SendResult, error) {
	from := sgmail.NewEmail(m.fromName, m.from)
	to := sgmail.NewEmail(fmt.Sprintf("%s %s", email.FirstName, email.LastName), email.Email)
	subject := "Verify your Raahi account"
	plainTextContent := templates.VerificationText(email.FirstName, email.VerificationURL)
	htmlContent := templates.RenderVerificationEmail(email.FirstName, email.LastName, email.VerificationURL)
	message := sgmail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return nil, classify(err)
	}

	switch {
	case response.StatusCode == 401 || response.StatusCode == 403:
		return nil, fmt.Errorf("%w: sendgrid status %d", ErrAuth, response.StatusCode)
	case response.StatusCode >= 500:
		return nil, fmt.Errorf("%w: sendgrid status %d", ErrConnect, response.StatusCode)
	case response.StatusCode >= 300:
		return nil, fmt.Errorf("sendgrid rejected send with status %d", response.StatusCode)
	}

	messageID := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	zap.S().Infow("verification email sent", "recipient", email.Email, "statusCode", response.StatusCode)
	return &SendResult{MessageID: messageID, Recipient: email.Email}, nil
}
