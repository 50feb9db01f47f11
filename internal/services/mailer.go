package services

import (
	"context"
	"fmt"

	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/sendgrid"
)

type Email struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	Category string
}

// Mailer delivers account notifications.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// NewMailer sends through SendGrid when a client is given and only logs otherwise.
func NewMailer(log *logger.Logger, client sendgrid.Client) Mailer {
	if client == nil {
		return &logMailer{log: log.With("service", "Mailer", "transport", "log")}
	}
	return &sendgridMailer{log: log.With("service", "Mailer", "transport", "sendgrid"), client: client}
}

type sendgridMailer struct {
	log    *logger.Logger
	client sendgrid.Client
}

func (m *sendgridMailer) Send(ctx context.Context, msg Email) error {
	req := sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	if msg.Category != "" {
		req.Categories = []string{msg.Category}
	}
	res, err := m.client.Send(ctx, req)
	if err != nil {
		m.log.Warn("Email delivery failed", "to", msg.To, "category", msg.Category, "error", err)
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info("Email sent", "to", msg.To, "category", msg.Category, "message_id", res.MessageID)
	return nil
}

type logMailer struct {
	log *logger.Logger
}

func (m *logMailer) Send(_ context.Context, msg Email) error {
	m.log.Info("Email delivery disabled, message logged", "to", msg.To, "subject", msg.Subject, "category", msg.Category)
	return nil
}

func invitationEmail(to, name, password string) Email {
	return Email{
		To:       to,
		ToName:   name,
		Subject:  "Доступ к конструктору ДПП ПК",
		Category: "invitation",
		Text: fmt.Sprintf(
			"Здравствуйте, %s!\n\nДля вас создана учётная запись в конструкторе ДПП ПК.\nЛогин: %s\nВременный пароль: %s\n\nПри первом входе смените пароль.",
			name, to, password,
		),
	}
}

func rejectionEmail(to, name, reason string) Email {
	text := fmt.Sprintf("Здравствуйте, %s!\n\nВаша заявка на регистрацию в конструкторе ДПП ПК отклонена.", name)
	if reason != "" {
		text += "\nПричина: " + reason
	}
	return Email{To: to, ToName: name, Subject: "Заявка на регистрацию", Category: "candidate_rejected", Text: text}
}
