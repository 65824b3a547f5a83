package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raahiforwork/raahi-api/config"
	templates "github.com/raahiforwork/raahi-api/templates/html"
)

// sendWindow throttles outbound mail to 5 sends per 20 seconds. A throttled
// send is not queued; it fails fast and surfaces to the caller.
const (
	sendsPerWindow = 5
	sendWindow     = 20 * time.Second
	dialTimeout    = 30 * time.Second
)

// SMTPMailer relays mail through a single pooled SMTP connection. The mutex
// serializes sends, the limiter enforces the rate window.
type SMTPMailer struct {
	client   *mail.Client
	limiter  *rate.Limiter
	from     string
	fromName string

	mu sync.Mutex
}

// NewSMTPMailer builds the client from config. Credentials are checked on the
// first send, auth failures surface as ErrAuth.
func NewSMTPMailer(conf *config.Config) (*SMTPMailer, error) {
	if conf.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	if conf.MailFrom == "" {
		return nil, fmt.Errorf("EMAIL_USER is not set")
	}

	opts := []mail.Option{
		mail.WithPort(conf.SMTPPort),
		mail.WithTimeout(dialTimeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if conf.SMTPUsername != "" && conf.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(conf.SMTPUsername),
			mail.WithPassword(conf.SMTPPassword),
		)
	}

	client, err := mail.NewClient(conf.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &SMTPMailer{
		client:   client,
		limiter:  rate.NewLimiter(rate.Every(sendWindow/sendsPerWindow), sendsPerWindow),
		from:     conf.MailFrom,
		fromName: conf.MailFromName,
	}, nil
}

// SendVerification renders the verification email and relays it. Rate-window
// exhaustion is reported like a transport timeout, matching how a saturated
// relay behaves from the caller's point of view.
func (m *SMTPMailer) SendVerification(ctx context.Context, email VerificationEmail) (*SendResult, error) {
	if !m.limiter.Allow() {
		zap.S().Warnw("mail send throttled", "recipient", email.Email)
		return nil, fmt.Errorf("%w: send rate exceeded", ErrTimeout)
	}

	msg := mail.NewMsg()
	if m.fromName != "" {
		if err := msg.FromFormat(m.fromName, m.from); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(m.from); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}
	if err := msg.To(email.Email); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	if err := msg.ReplyTo(m.from); err != nil {
		return nil, fmt.Errorf("setting reply-to address: %w", err)
	}
	msg.Subject("Verify your Raahi account")
	msg.SetMessageID()
	msg.SetImportance(mail.ImportanceHigh)
	msg.SetBodyString(mail.TypeTextPlain, templates.VerificationText(email.FirstName, email.VerificationURL))
	msg.AddAlternativeString(mail.TypeTextHTML, templates.RenderVerificationEmail(email.FirstName, email.LastName, email.VerificationURL))

	m.mu.Lock()
	err := m.client.DialAndSendWithContext(ctx, msg)
	m.mu.Unlock()
	if err != nil {
		return nil, classify(err)
	}

	messageID := ""
	if ids := msg.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = ids[0]
	}
	zap.S().Infow("verification email sent", "recipient", email.Email, "messageId", messageID)
	return &SendResult{MessageID: messageID, Recipient: email.Email}, nil
}

// classify folds transport errors into the taxonomy the handlers expose.
// Auth rejections come back as 535-style SMTP replies, so they are matched on
// the reply text; connection and timeout failures carry their own types.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrConnCheck:
			return fmt.Errorf("%w: %v", ErrConnect, err)
		}
	}
	low := strings.ToLower(err.Error())
	if strings.Contains(low, "auth") || strings.Contains(low, "535") {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if strings.Contains(low, "connect") || strings.Contains(low, "connection refused") {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return err
}
