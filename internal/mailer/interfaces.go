package mailer

// Service delivers a one-time password-reset code to an email address.
type Service interface {
	SendOTPEmail(toEmail, code string) error
}
