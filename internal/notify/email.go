package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"guardian-backend/internal/models"
)

type EmailService struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	devMode bool
}

func NewEmailService(host, port, user, pass, from string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		devMode: devMode,
	}
}

func alertSubject(kind models.AlertKind, childID string) string {
	switch kind {
	case models.AlertLeaveTooLong:
		return fmt.Sprintf("⚠️ %s has been away from the desk too long", childID)
	case models.AlertPlayWhileWork:
		return fmt.Sprintf("📱 %s is playing during study time", childID)
	case models.AlertSessionStart:
		return fmt.Sprintf("✅ %s started studying", childID)
	case models.AlertSessionEnd:
		return fmt.Sprintf("🏁 %s finished studying for today", childID)
	}
	return "Guardian alert"
}

func alertBody(kind models.AlertKind, childID, details string) string {
	switch kind {
	case models.AlertLeaveTooLong:
		return fmt.Sprintf("Reminder: %s has left the desk for longer than the configured threshold. %s", childID, details)
	case models.AlertPlayWhileWork:
		return fmt.Sprintf("Reminder: %s was detected playing while studying. %s", childID, details)
	case models.AlertSessionStart:
		return fmt.Sprintf("%s started a study session. Study time tracking is now active.", childID)
	case models.AlertSessionEnd:
		return fmt.Sprintf("%s finished today's study session. See the daily report for details.", childID)
	}
	return details
}

func (s *EmailService) SendAlertEmail(to string, kind models.AlertKind, childID, details string) error {
	subject := alertSubject(kind, childID)
	body := alertBody(kind, childID, details)

	html := fmt.Sprintf(`<html>
<body>
  <h2>%s</h2>
  <p>%s</p>
  <p>Time: %s</p>
  <hr>
  <p><small>Guardian homework monitoring</small></p>
</body>
</html>`, subject, body, time.Now().Format("2006-01-02 15:04:05"))

	return s.send(to, subject, body, html)
}

func (s *EmailService) SendDailyReportEmail(to string, report models.DailyReport) error {
	subject := fmt.Sprintf("📊 Daily study report for %s", report.ChildID)

	studyHours := float64(report.TotalStudySeconds) / 3600

	body := fmt.Sprintf(`Daily study report for %s (%s)

Study time: %.1f hours
Focus score: %.1f%%

Activity breakdown:
- studying: %d minutes
- idle: %d minutes
- away: %d minutes
- playing: %d minutes
`,
		report.ChildID,
		report.Date,
		studyHours,
		report.FocusScore,
		report.Activities[models.ActivityStudying]/60,
		report.Activities[models.ActivityIdle]/60,
		report.Activities[models.ActivityAway]/60,
		report.Activities[models.ActivityPlaying]/60,
	)

	html := fmt.Sprintf(`<html>
<body>
  <h2>📊 Daily study report for %s</h2>
  <table>
    <tr><td><b>Study time</b></td><td>%.1f hours</td></tr>
    <tr><td><b>Focus score</b></td><td>%.1f%%</td></tr>
  </table>
  <hr>
  <p><small>Guardian homework monitoring</small></p>
</body>
</html>`, report.ChildID, studyHours, report.FocusScore)

	return s.send(to, subject, body, html)
}

func (s *EmailService) SendTestEmail(to string) error {
	return s.send(
		to,
		"✅ Guardian test email",
		"This is a test email confirming that email notifications are working.",
		"",
	)
}

func (s *EmailService) send(to, subject, plainBody, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", plainBody)
		return nil
	}

	message := buildMessage(s.from, to, subject, plainBody, htmlBody)

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}

// buildMessage assembles a multipart/alternative MIME message so clients can
// pick between the plain and HTML parts. Without an HTML part a simple
// text/plain message is produced instead.
func buildMessage(from, to, subject, plainBody, htmlBody string) string {
	if htmlBody == "" {
		headers := []string{
			fmt.Sprintf("From: %s", from),
			fmt.Sprintf("To: %s", to),
			fmt.Sprintf("Subject: %s", subject),
			"MIME-Version: 1.0",
			"Content-Type: text/plain; charset=UTF-8",
		}
		return strings.Join(headers, "\r\n") + "\r\n\r\n" + plainBody
	}

	const boundary = "guardian-alt-boundary"

	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		fmt.Sprintf(`Content-Type: multipart/alternative; boundary=%q`, boundary),
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, "\r\n"))
	b.WriteString("\r\n\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(plainBody)
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return b.String()
}
