package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/sirupsen/logrus"
)

type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New returns an SMTP mailer, or a log-only mailer when no host is configured
// so local setups can exercise the send endpoints without a relay.
func New(cfg SMTPConfig, log *logrus.Logger) Mailer {
	if cfg.Host == "" {
		log.Warn("smtp not configured, outgoing mail will only be logged")
		return &logMailer{log: log}
	}
	return &smtpMailer{cfg: cfg, log: log}
}

type smtpMailer struct {
	cfg SMTPConfig
	log *logrus.Logger
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	body, err := buildMIME(m.cfg.From, msg)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	m.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("mail sent")
	return nil
}

// buildMIME assembles a multipart/mixed message with a plain-text part and an
// optional PDF attachment.
func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/mixed; boundary=%q\r\n\r\n",
		from, msg.To, msg.Subject, mw.Boundary())

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	if len(msg.Attachment) > 0 {
		name := msg.AttachmentName
		if name == "" {
			name = "document.pdf"
		}
		attPart, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/pdf"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
		})
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(msg.Attachment)
		if _, err := attPart.Write([]byte(enc)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type logMailer struct {
	log *logrus.Logger
}

func (m *logMailer) Send(ctx context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"attachment": msg.AttachmentName,
		"bytes":      len(msg.Attachment),
	}).Info("mail (log only)")
	return nil
}
