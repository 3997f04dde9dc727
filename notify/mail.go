package notify

import (
	"context"

	"github.com/wneessen/go-mail"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AdminTo receives admin and contact channel messages.
	AdminTo string
}

type MailNotifier struct {
	cfg MailConfig
}

func NewMailNotifier(cfg MailConfig) *MailNotifier {
	return &MailNotifier{cfg: cfg}
}

func (n *MailNotifier) Name() string { return "mail" }

func (n *MailNotifier) Notify(ctx context.Context, msg Message) error {
	to := n.recipient(msg)
	if to == "" {
		return nil
	}

	m, err := n.buildMessage(to, msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{mail.WithPort(n.cfg.Port)}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	c, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, m)
}

func (n *MailNotifier) recipient(msg Message) string {
	if msg.Channel == ChannelCustomer {
		return msg.Recipient
	}
	return n.cfg.AdminTo
}

func (n *MailNotifier) buildMessage(to string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return nil, err
	}
	if err := m.To(to); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
