// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendProposal(toEmail, clientName, attachmentPath, fileName string) error
}

// sender is the part of gomail.Dialer the service needs.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer      sender
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) SendProposal(toEmail, clientName, attachmentPath, fileName string) error {
	m := s.buildProposalMessage(toEmail, clientName, attachmentPath, fileName)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send proposal to %s: %w", toEmail, err)
	}
	return nil
}

func (s *emailService) buildProposalMessage(toEmail, clientName, attachmentPath, fileName string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your %s proposal", s.senderName))

	name := clientName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hello %s,</h2>
			<p>Thank you for completing the intake questionnaire. Your proposal is attached to this email.</p>
			<p>You can download it again at any time from your conversation.</p>
			<p>The %s Team</p>
		</div>
	`, html.EscapeString(name), html.EscapeString(s.senderName))
	m.SetBody("text/html", body)
	m.Attach(attachmentPath, gomail.Rename(fileName))
	return m
}
