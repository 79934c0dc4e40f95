package mail

import (
	"context"
	"fmt"

	"github.com/frontandrew/fleettrack/internal/pkg/config"
	gomail "github.com/wneessen/go-mail"
)

// Mailer - интерфейс отправки писем
// Сервисы, которым письма не критичны, сами решают, глотать ли ошибку
type Mailer interface {
	// Send отправляет текстовое письмо одному получателю
	Send(ctx context.Context, to, subject, body string) error

	// Health проверяет доступность SMTP сервера
	Health(ctx context.Context) error
}

// SMTPClient отправляет письма через SMTP
// В разработке обычно MailHog (localhost:1025, без TLS и аутентификации)
type SMTPClient struct {
	client     *gomail.Client
	sender     string
	senderName string
}

// NewSMTPClient создает новый SMTP клиент
func NewSMTPClient(cfg *config.SMTPConfig) (*SMTPClient, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPClient{
		client:     client,
		sender:     cfg.Sender,
		senderName: cfg.SenderName,
	}, nil
}

// Send отправляет текстовое письмо в кодировке UTF-8
func (c *SMTPClient) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()

	if err := msg.FromFormat(c.senderName, c.sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := c.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// Health проверяет, что SMTP сервер принимает подключения
func (c *SMTPClient) Health(ctx context.Context) error {
	if err := c.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp server unreachable: %w", err)
	}
	return c.client.Close()
}
