package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Template names understood by the mailer.
const (
	TemplateAccountBreached = "accountBreached"
	TemplateRuleWarning     = "ruleWarning"
)

// Sender defines the interface for sending templated email.
type Sender interface {
	Send(ctx context.Context, to, templateName string, data map[string]interface{}) error
}

// Config holds SMTP settings for the gomail sender.
type Config struct {
	Host              string
	Port              int
	Username          string
	Password          string
	FromAddress       string
	FromName          string
	MaxSendsPerMinute int
}

type smtpSender struct {
	cfg       Config
	dialer    *gomail.Dialer
	limiter   *rate.Limiter
	templates map[string]*template.Template
}

// NewSMTPSender creates a gomail-backed sender with outbound rate limiting.
func NewSMTPSender(cfg Config) (Sender, error) {
	templates := make(map[string]*template.Template)
	for name, body := range templateBodies {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	perMinute := cfg.MaxSendsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	return &smtpSender{
		cfg:       cfg,
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		templates: templates,
	}, nil
}

// Send renders the named template and delivers it over SMTP.
func (s *smtpSender) Send(ctx context.Context, to, templateName string, data map[string]interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("unknown email template: %s", templateName)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template %s: %w", templateName, err)
	}

	subject, _ := data["Subject"].(string)
	if subject == "" {
		subject = templateSubjects[templateName]
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
