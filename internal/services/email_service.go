package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationEmail(email, name, link string) error
	SendPasswordResetEmail(email, name, link string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendVerificationEmail(email, name, link string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Verify your email address")

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Thank you for registering. Please confirm your email address to activate your account.</p>
		<p><a href="%s">Verify email</a></p>
		<p>If the button does not work, copy this link into your browser:<br>%s</p>
	`, name, link, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (s *emailService) SendPasswordResetEmail(email, name, link string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Password reset request")

	body := fmt.Sprintf(`
                <h3>Hello, %s</h3>
                <p>We received a request to reset the password for your account.</p>
                <p><a href="%s">Reset password</a></p>
                <p>If you did not request this change, you can ignore this email.</p>
        `, name, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}
