// Package notify delivers board invitations. The rest of the service only
// depends on the Mailer contract; a send failure never unwinds the data effect
// that triggered it.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type Invitation struct {
	To         string
	FromName   string
	BoardTitle string
}

type Mailer interface {
	Send(ctx context.Context, inv Invitation) error
}

// SMTPMailer sends invitations over plain-auth SMTP.
type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
	log      *logrus.Logger
}

func NewSMTPMailer(host string, port int, username, password, from string, log *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		username: username,
		password: password,
		from:     from,
		log:      log,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, inv Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Invitation from %s to join in %s", inv.FromName, inv.BoardTitle)
	body := fmt.Sprintf(`Hi,

I'm inviting you to join our Agile Track board titled %q. Your insights would be invaluable to our team.

To join the board, login Agile Track now.

Looking forward to having you onboard!

Best regards,
%s
`, inv.BoardTitle, inv.FromName)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", inv.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(m.addr, auth, m.from, []string{inv.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.WithField("to", inv.To).Info("invitation email sent")
	return nil
}

// BreakerMailer wraps a Mailer in a circuit breaker so a flapping mail server
// does not hold every share request for a full SMTP timeout.
type BreakerMailer struct {
	inner Mailer
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerMailer(inner Mailer, log *logrus.Logger) *BreakerMailer {
	st := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
		},
	}
	return &BreakerMailer{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func (m *BreakerMailer) Send(ctx context.Context, inv Invitation) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.inner.Send(ctx, inv)
	})
	return err
}

// NopMailer is used when SMTP is not configured; it logs instead of sending.
type NopMailer struct {
	log *logrus.Logger
}

func NewNopMailer(log *logrus.Logger) *NopMailer {
	return &NopMailer{log: log}
}

func (m *NopMailer) Send(_ context.Context, inv Invitation) error {
	m.log.WithFields(logrus.Fields{"to": inv.To, "board": inv.BoardTitle}).Info("smtp not configured, skipping invitation email")
	return nil
}
