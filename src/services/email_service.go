package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/inversure/backend/src/config"
	"github.com/username/inversure/backend/src/logger"
)

// EmailService notifies investors when a project changes lifecycle state.
type EmailService interface {
	SendEstadoChangeEmail(toEmail, proyectoNombre, estadoAnterior, estadoNuevo string) error
}

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

func estadoChangeSubject(proyectoNombre string) string {
	return fmt.Sprintf("Actualización del proyecto %s", proyectoNombre)
}

func estadoChangeBody(proyectoNombre, estadoAnterior, estadoNuevo string) string {
	return fmt.Sprintf(`Hola,

El proyecto %s ha cambiado de estado: %s → %s.

Puede consultar el detalle actualizado en su panel de inversor.

Un saludo,
El equipo de Inversure`, proyectoNombre, estadoAnterior, estadoNuevo)
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendEstadoChangeEmail(toEmail, proyectoNombre, estadoAnterior, estadoNuevo string) error {
	from := s.SenderEmail
	to := []string{toEmail}
	subject := estadoChangeSubject(proyectoNombre)
	body := estadoChangeBody(proyectoNombre, estadoAnterior, estadoNuevo)

	header := make(map[string]string)
	header["From"] = from
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	err := smtp.SendMail(addr, auth, from, to, []byte(message))
	if err != nil {
		logger.L.Error("Failed to send estado change email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send estado change email via SMTP: %w", err)
	}
	logger.L.Info("Estado change email sent successfully via SMTP", "to", toEmail)
	return nil
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendEstadoChangeEmail(toEmail, proyectoNombre, estadoAnterior, estadoNuevo string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := estadoChangeSubject(proyectoNombre)
	plainTextBody := estadoChangeBody(proyectoNombre, estadoAnterior, estadoNuevo)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hola,</p>
			<p>El proyecto <strong>%s</strong> ha cambiado de estado: <strong>%s</strong> &rarr; <strong>%s</strong>.</p>
			<p>Puede consultar el detalle actualizado en su panel de inversor.</p>
			<p>Un saludo,<br>El equipo de Inversure</p>
		</body>
	</html>`, proyectoNombre, estadoAnterior, estadoNuevo)

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("estado-change")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send estado change email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Estado change email sent successfully via Mailgun", "to", toEmail, "id", id, "mailgunResp", resp)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendEstadoChangeEmail(toEmail, proyectoNombre, estadoAnterior, estadoNuevo string) error {
	logger.L.Info("MockEmailService: Would send estado change email.",
		"to", toEmail, "proyecto", proyectoNombre, "from", estadoAnterior, "to_estado", estadoNuevo)
	return nil
}
