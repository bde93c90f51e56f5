package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"tube-digest/internal/models"
	"tube-digest/shared/config"
)

//go:embed digest_template.html
var digestTemplate string

var sentimentColors = map[string]string{
	"bullish": "#16a34a",
	"bearish": "#dc2626",
	"neutral": "#6b7280",
}

var tmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"sentimentColor": func(sentiment string) template.CSS {
		if c, ok := sentimentColors[sentiment]; ok {
			return template.CSS(c)
		}
		return template.CSS(sentimentColors["neutral"])
	},
	"upper": strings.ToUpper,
	"hasLevels": func(levels string) bool {
		return levels != "" && levels != "No specific levels mentioned"
	},
}).Parse(digestTemplate))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendDigest renders the daily digest and mails it to the configured recipient.
func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil || report.Digest == nil {
		return fmt.Errorf("report cannot be nil")
	}

	subject := fmt.Sprintf("Market Digest - %s", report.Date.Format("Jan 02, 2006"))

	body, err := RenderDigest(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.send(addr, auth, s.config.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

type digestView struct {
	Date       string
	VideoCount int
	Digest     *models.Digest
	Videos     []*models.VideoAnalysis
}

func RenderDigest(report *models.DigestReport) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, digestView{
		Date:       report.Date.Format("Monday, January 02, 2006"),
		VideoCount: len(report.Videos),
		Digest:     report.Digest,
		Videos:     report.Videos,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
