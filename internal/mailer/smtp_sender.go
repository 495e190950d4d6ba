// Package mailer delivers outreach emails through each user's own SMTP account.
package mailer

import (
	"context"
	"errors"
	"html"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Credentials are the user's decrypted SMTP login. Username doubles as From.
type Credentials struct {
	Username string
	Password string
}

type Message struct {
	To       string
	Subject  string
	Body     string // plain text
	PixelURL string // optional open-tracking image
}

type Sender interface {
	Send(ctx context.Context, creds Credentials, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Timeout  time.Duration
	Insecure bool
}

type SMTPSender struct {
	lg zerolog.Logger

	host     string
	port     int
	insecure bool
	timeout  time.Duration
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:       lg.With().Str("component", "smtp_sender").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

func (s *SMTPSender) Send(ctx context.Context, creds Credentials, msg Message) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m, err := buildMessage(creds, msg)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	c, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Username),
		mail.WithPassword(creds.Password),
	)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	s.lg.Info().Str("host", s.host).Int("port", s.port).Str("to", msg.To).Str("subject", msg.Subject).Msg("attempting smtp send")
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", msg.To).Msg("smtp send failed")
		return classify(err)
	}

	s.lg.Info().Str("to", msg.To).Msg("smtp send ok")
	return nil
}

// buildMessage assembles a multipart/alternative mail: the plain body first,
// then its HTML rendering carrying the tracking pixel.
func buildMessage(creds Credentials, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(creds.Username); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(msg.To); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(msg.Subject)

	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.AddAlternativeString(mail.TypeTextHTML, RenderHTML(msg.Body, msg.PixelURL))
	return m, nil
}

// classify maps a send failure to PermanentError or TemporaryError. SMTP
// reply codes win over message text: 5xx is permanent, 4xx and anything
// without a code is retried.
func classify(err error) error {
	msg := err.Error()

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		if sendErr.IsTemp() {
			return TemporaryError{msg: "smtp transient failure: " + msg}
		}
		if sendErr.ErrorCode() >= 500 {
			return PermanentError{msg: "recipient rejected: " + msg}
		}
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch {
		case protoErr.Code == 534 || protoErr.Code == 535:
			return PermanentError{msg: "smtp auth failed: " + msg}
		case protoErr.Code >= 500:
			return PermanentError{msg: "smtp rejected: " + msg}
		case protoErr.Code >= 400:
			return TemporaryError{msg: "smtp transient failure: " + msg}
		}
	}

	switch code := replyCode(msg); {
	case code == 534 || code == 535:
		return PermanentError{msg: "smtp auth failed: " + msg}
	case code >= 500:
		return PermanentError{msg: "recipient rejected: " + msg}
	case code >= 400:
		return TemporaryError{msg: "smtp transient failure: " + msg}
	}
	if containsAny(msg, "5.7.8", "Username and Password not accepted") {
		return PermanentError{msg: "smtp auth failed: " + msg}
	}
	return TemporaryError{msg: "smtp transient failure: " + msg}
}

// replyCode returns the three-digit SMTP code leading msg, or 0.
func replyCode(msg string) int {
	if len(msg) < 3 || (len(msg) > 3 && msg[3] != ' ' && msg[3] != '-') {
		return 0
	}
	code, err := strconv.Atoi(msg[:3])
	if err != nil || code < 200 || code > 599 {
		return 0
	}
	return code
}

// RenderHTML escapes the plain body, keeps its line breaks and appends the
// tracking pixel when pixelURL is set.
func RenderHTML(body, pixelURL string) string {
	var b strings.Builder
	b.WriteString(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
`)
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = html.EscapeString(lines[i])
		}
		b.WriteString("    <p>" + strings.Join(lines, "<br/>") + "</p>\n")
	}
	if pixelURL != "" {
		b.WriteString(`    <img src="` + html.EscapeString(pixelURL) + `" width="1" height="1" alt="" style="display:none;"/>` + "\n")
	}
	b.WriteString("  </body>\n</html>")
	return b.String()
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
