package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Sender delivers a message. Implementations block until the transport has
// accepted or rejected it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// SMTPSender sends through an SMTP relay with STARTTLS and PLAIN auth.
type SMTPSender struct {
	cfg  SMTPConfig
	auth smtp.Auth
	addr string
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.cfg.Username
	}
	raw, err := Build(msg)
	if err != nil {
		return err
	}
	if err := smtp.SendMail(s.addr, s.auth, msg.From, msg.Recipients(), raw); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	log.Printf("SMTPSender: sent %q to %s", msg.Subject, strings.Join(msg.Recipients(), ", "))
	return nil
}

// CompositeSender delivers through every configured sender. A message counts
// as sent once any sender accepted it; the other failures are only logged so
// a broken outbox cannot hold back a delivered email.
type CompositeSender struct {
	senders []Sender
}

func NewCompositeSender(senders ...Sender) *CompositeSender {
	return &CompositeSender{senders: senders}
}

func (cs *CompositeSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

func (cs *CompositeSender) Send(ctx context.Context, msg Message) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured in CompositeSender")
	}
	var allErrors []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, msg); err != nil {
			allErrors = append(allErrors, err.Error())
		}
	}
	switch {
	case len(allErrors) == len(cs.senders):
		return fmt.Errorf("composite send failed: [ %s ]", strings.Join(allErrors, "; "))
	case len(allErrors) > 0:
		log.Printf("CompositeSender: %d of %d sender(s) failed for %s: [ %s ]",
			len(allErrors), len(cs.senders), msg.To, strings.Join(allErrors, "; "))
	}
	return nil
}
