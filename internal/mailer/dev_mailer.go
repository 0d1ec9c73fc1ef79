package mailer

import (
	"fmt"

	"github.com/authcraft/account-service/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendOTPEmail(toEmail, code string) error {
	logger.Info("📧 [DEV MAIL] OTP Email",
		"to", toEmail,
		"code", code,
	)

	fmt.Printf("\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"📧 PASSWORD RESET OTP (DEV MODE)\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("To: %s\n"+
		"Subject: Your password reset code\n"+
		"\n"+
		"OTP Code: %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, code)

	return nil
}
