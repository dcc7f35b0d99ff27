package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/common/constants"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SMTPSender struct {
	cfg SMTPConfig
	log *logger.Logger
}

func NewSMTPSender(cfg SMTPConfig, log *logger.Logger) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = constants.DefaultSMTPPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultSMTPTimeout
	}
	return &SMTPSender{cfg: cfg, log: log}
}

func (s *SMTPSender) SendVerification(ctx context.Context, msg VerificationMessage) error {
	mail, err := renderVerification(msg)
	if err != nil {
		return err
	}
	return s.send(ctx, mail)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	mail, err := renderPasswordReset(msg)
	if err != nil {
		return err
	}
	return s.send(ctx, mail)
}

func (s *SMTPSender) send(ctx context.Context, mail renderedMail) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Transient(fmt.Errorf("smtp dial %s: %w", addr, err))
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return Transient(fmt.Errorf("smtp handshake: %w", err))
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return Transient(fmt.Errorf("smtp starttls: %w", err))
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return Transient(fmt.Errorf("smtp auth: server %s does not offer AUTH", addr))
		}
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return Transient(fmt.Errorf("smtp auth: %w", err))
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return classifySMTPError("mail from", err)
	}
	if err := client.Rcpt(mail.To); err != nil {
		return classifySMTPError("rcpt to", err)
	}

	w, err := client.Data()
	if err != nil {
		return classifySMTPError("data", err)
	}
	if _, err := w.Write(buildMessage(s.cfg.From, mail)); err != nil {
		_ = w.Close()
		return Transient(fmt.Errorf("smtp write: %w", err))
	}
	if err := w.Close(); err != nil {
		return classifySMTPError("data", err)
	}

	if err := client.Quit(); err != nil && s.log != nil {
		s.log.Debugf("smtp quit: %v", err)
	}
	return nil
}

// classifySMTPError maps a reply to a failure kind: 5xx rejections are
// permanent unless they are about authentication, everything else is
// transient.
func classifySMTPError(stage string, err error) error {
	wrapped := fmt.Errorf("smtp %s: %w", stage, err)

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		if tpErr.Code >= 500 && tpErr.Code < 600 && !isAuthReply(tpErr) {
			return Permanent(wrapped)
		}
	}
	return Transient(wrapped)
}

// authReplyCodes are the RFC 4954 authentication replies.
var authReplyCodes = map[int]bool{530: true, 534: true, 535: true, 538: true}

// authEnhancedCodes are RFC 3463 security statuses that point at the
// sender's credentials rather than the recipient.
var authEnhancedCodes = map[string]bool{
	"5.7.0":  true,
	"5.7.8":  true,
	"5.7.9":  true,
	"5.7.11": true,
	"5.7.14": true,
}

func isAuthReply(e *textproto.Error) bool {
	if authReplyCodes[e.Code] {
		return true
	}
	fields := strings.Fields(e.Msg)
	return len(fields) > 0 && authEnhancedCodes[fields[0]]
}

func buildMessage(from string, mail renderedMail) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + mail.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", mail.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(mail.HTML, "\n", "\r\n"))
	return []byte(b.String())
}
