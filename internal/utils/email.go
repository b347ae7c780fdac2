package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"verdure_back_end/internal/config"
)

// Mailer envoie un e-mail HTML.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer envoie via go-mail avec authentification LOGIN et TLS obligatoire.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewMailer retourne un SMTPMailer si SMTP_HOST est défini, sinon un LogMailer.
func NewMailer(cfg config.Config) Mailer {
	if cfg.SMTPHost == "" {
		log.Println("⚠️ SMTP_HOST vide, les e-mails seront seulement journalisés")
		return LogMailer{}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("expéditeur invalide: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("destinataire invalide: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer journalise les e-mails au lieu de les envoyer (dev).
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("📧 [dev] e-mail non envoyé → %s : %s", to, subject)
	return nil
}

// SendAsync envoie en arrière-plan ; les erreurs sont seulement journalisées.
func SendAsync(m Mailer, to, subject, htmlBody string) {
	if m == nil || to == "" {
		return
	}
	go func() {
		if err := m.Send(context.Background(), to, subject, htmlBody); err != nil {
			log.Printf("⚠️ Erreur envoi email à %s: %v", to, err)
		}
	}()
}
