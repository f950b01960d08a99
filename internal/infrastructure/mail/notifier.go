package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"BeautyBot/internal/config"
	"BeautyBot/internal/ports"
)

const antiSpamFooter = "\n\nTip: add us to your contacts so our recommendations never land in spam."

// SMTPNotifier delivers newsletter copy over SMTP with STARTTLS. All
// configured recipients share one message; the body is plain text.
type SMTPNotifier struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string
	fromName   string
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier builds a notifier from mail configuration.
func NewSMTPNotifier(cfg config.MailConfig) *SMTPNotifier {
	return &SMTPNotifier{
		host:       cfg.Host,
		port:       cfg.Port,
		sender:     cfg.Sender,
		password:   cfg.Password,
		recipients: cfg.RecipientList(),
		fromName:   "Skincare Bot",
	}
}

// Send composes and delivers the message. Misconfiguration (missing
// sender, recipients, or host) is reported as an error so the pipeline
// degrades the run instead of crashing at startup.
func (n *SMTPNotifier) Send(ctx context.Context, subject, body string) error {
	if n.sender == "" || n.host == "" || len(n.recipients) == 0 {
		return fmt.Errorf("smtp notifier misconfigured")
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(n.recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	if err := msg.ReplyTo(n.sender); err != nil {
		return fmt.Errorf("set reply-to: %w", err)
	}
	msg.Subject(subject)
	msg.SetUserAgent("BeautyBot 1.0")
	msg.SetImportance(gomail.ImportanceNormal)
	msg.SetBodyString(gomail.TypeTextPlain, body+antiSpamFooter)

	client, err := gomail.NewClient(n.host,
		gomail.WithPort(n.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.sender),
		gomail.WithPassword(n.password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
