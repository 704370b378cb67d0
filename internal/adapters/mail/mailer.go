package mail

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/payment"
	gomail "github.com/wneessen/go-mail"
)

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	client *gomail.Client
	from   string
	logger observability.Logger
}

func NewMailer(opts Options, logger observability.Logger) (*Mailer, error) {
	c, err := gomail.NewClient(
		opts.Host,
		gomail.WithPort(opts.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(opts.Username),
		gomail.WithPassword(opts.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, errors.Wrap(err, "smtp client")
	}
	return &Mailer{client: c, from: opts.From, logger: logger}, nil
}

func (m *Mailer) Send(ctx context.Context, notice payment.Notice) error {
	msg, err := buildMsg(m.from, notice)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.WithError(err).WithField("subject", notice.Subject).Warn("failed to send mail")
		return errors.Wrap(err, "send mail")
	}
	return nil
}

func buildMsg(from string, notice payment.Notice) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, errors.Wrapf(err, "from address %q", from)
	}
	if err := msg.To(notice.To); err != nil {
		return nil, errors.Wrapf(err, "to address %q", notice.To)
	}
	msg.Subject(notice.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, notice.Body)
	return msg, nil
}
