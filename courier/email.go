package courier

import (
	"context"
	"os"
	"strconv"

	"github.com/go-gomail/gomail"
	"github.com/tob-euro/auto-dubbing/utility/zip"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// attachments above this size are silently dropped, mail servers
// reject large messages anyway
const maxAttachmentBytes = 2000000

func GoMailSendMail(ctx context.Context, recipients []string, subject string, msg string,
	archivePath string, attachments []string) *log.Status {
	senderEmail := os.Getenv("DUB_SMTP_SENDER_EMAIL")
	password := os.Getenv("DUB_SMTP_PASSWORD")
	smtpHost := os.Getenv("DUB_SMTP_HOST_NAME")
	smtpPort, _ := strconv.Atoi(os.Getenv("DUB_SMTP_HOST_PORT"))

	m := gomail.NewMessage()
	m.SetHeader("From", senderEmail)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", msg)
	if len(attachments) > 0 && archivePath != `` {
		zipSize, err := zip.Archive(archivePath, attachments)
		if err != nil {
			_ = log.Error(ctx, 500, err, "Failed to create zip for attachment")
		} else if zipSize < maxAttachmentBytes {
			m.Attach(archivePath)
		}
	}
	d := gomail.NewDialer(smtpHost, smtpPort, senderEmail, password)
	err := d.DialAndSend(m)
	if err != nil {
		return log.Error(ctx, 500, err, "Error sending email")
	}
	log.Info(ctx, "Email sent", smtpHost, smtpPort, subject, recipients)
	return nil
}
