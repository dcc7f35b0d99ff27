package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/go-playground/validator/v10"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	verificationTemplate  = "verification.html"
	passwordResetTemplate = "password_reset.html"

	verificationSubject  = "Confirm your Medfast account"
	passwordResetSubject = "Your Medfast password reset code"
)

type renderedMail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

var recipientValidator = validator.New()

func checkRecipient(addr string) error {
	if err := recipientValidator.Var(addr, "required,email"); err != nil {
		return Permanent(fmt.Errorf("%w: %q", ErrInvalidRecipient, addr))
	}
	return nil
}

func renderVerification(msg VerificationMessage) (renderedMail, error) {
	if err := checkRecipient(msg.Recipient); err != nil {
		return renderedMail{}, err
	}
	body, err := render(verificationTemplate, msg)
	if err != nil {
		return renderedMail{}, Permanent(err)
	}
	return renderedMail{To: msg.Recipient, Subject: verificationSubject, HTML: body}, nil
}

func renderPasswordReset(msg PasswordResetMessage) (renderedMail, error) {
	if err := checkRecipient(msg.Recipient); err != nil {
		return renderedMail{}, err
	}
	body, err := render(passwordResetTemplate, msg)
	if err != nil {
		return renderedMail{}, Permanent(err)
	}
	return renderedMail{To: msg.Recipient, Subject: passwordResetSubject, HTML: body}, nil
}
