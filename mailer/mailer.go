package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/raahiforwork/raahi-api/config"
)

// Transport failure categories. Handlers map these onto HTTP statuses:
// ErrAuth -> 401, ErrConnect -> 503, ErrTimeout -> 408, anything else -> 500.
var (
	ErrAuth    = errors.New("mail transport authentication failed")
	ErrConnect = errors.New("mail transport connection failed")
	ErrTimeout = errors.New("mail transport timed out")
)

// VerificationEmail is the input for a verification send
type VerificationEmail struct {
	Email           string
	FirstName       string
	LastName        string
	VerificationURL string
}

// SendResult echoes what the transport accepted
type SendResult struct {
	MessageID string
	Recipient string
}

// Mailer relays verification emails through a mail transport
type Mailer interface {
	SendVerification(ctx context.Context, email VerificationEmail) (*SendResult, error)
}

// New selects the mail provider from config. SMTP is the default; the
// SendGrid path is kept for deployments that relay through it instead.
func New(conf *config.Config) (Mailer, error) {
	switch conf.MailProvider {
	case "", "smtp":
		return NewSMTPMailer(conf)
	case "sendgrid":
		return NewSendGridMailer(conf)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", conf.MailProvider)
	}
}

// StatusFor maps a send error to the HTTP status surfaced to the caller
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrAuth):
		return 401
	case errors.Is(err, ErrConnect):
		return 503
	case errors.Is(err, ErrTimeout):
		return 408
	default:
		return 500
	}
}
