package mailer

import (
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

const otpSubject = "Your GlamMate OTP"

var otpBody = template.Must(template.New("otp").Parse(
	`<h2>Your OTP is:</h2><h3>{{.Code}}</h3><p>It will expire in {{.Minutes}} minutes.</p>`))

// Settings configures the SMTP relay.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	// FromName is shown next to Username in the From header.
	FromName string
	// Validity is quoted in the message body.
	ValidityMinutes int
}

// SMTPMailer delivers verification codes over SMTP with STARTTLS.
type SMTPMailer struct {
	settings Settings
	client   *mail.Client
}

func NewSMTPMailer(s Settings) (*SMTPMailer, error) {
	if s.FromName == "" {
		s.FromName = "GlamMate"
	}
	if s.ValidityMinutes == 0 {
		s.ValidityMinutes = 10
	}
	client, err := mail.NewClient(s.Host,
		mail.WithPort(s.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.Username),
		mail.WithPassword(s.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{settings: s, client: client}, nil
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	msg, err := m.otpMessage(email, code)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	log.Debug().Str("to", email).Msg("otp mail sent")
	return nil
}

func (m *SMTPMailer) otpMessage(to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.settings.FromName, m.settings.Username); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(otpSubject)
	data := struct {
		Code    string
		Minutes int
	}{code, m.settings.ValidityMinutes}
	if err := msg.SetBodyHTMLTemplate(otpBody, data); err != nil {
		return nil, fmt.Errorf("render otp mail: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextPlain,
		fmt.Sprintf("Your OTP is %s. It will expire in %d minutes.", code, m.settings.ValidityMinutes))
	return msg, nil
}

// LogMailer writes codes to the log instead of sending them. Used when no
// SMTP credentials are configured.
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, email, code string) error {
	log.Warn().Str("to", email).Str("otp", code).Msg("mail disabled, otp not sent")
	return nil
}
