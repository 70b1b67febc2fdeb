// Package notify delivers reservation emails over SMTP. Delivery is
// best-effort: the lifecycle treats every send as fire-and-forget and only
// logs failures.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strings"

	"github.com/example/table-reservations/internal/service"
)

// Config holds SMTP settings read from environment variables.
type Config struct {
	Host       string
	Port       string
	User       string
	Password   string
	From       string
	AdminEmail string
}

// ConfigFromEnv reads mailer config with local-development defaults
// (a mailcatcher on localhost:1025 needs no credentials).
func ConfigFromEnv() Config {
	return Config{
		Host:       getEnv("SMTP_HOST", "localhost"),
		Port:       getEnv("SMTP_PORT", "1025"),
		User:       os.Getenv("SMTP_USER"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       getEnv("EMAIL_FROM", "noreply@restaurant.example"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EmailNotifier implements service.Notifier over SMTP.
type EmailNotifier struct {
	cfg Config
}

// NewEmailNotifier constructs an EmailNotifier.
func NewEmailNotifier(cfg Config) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

var pendingTmpl = template.Must(template.New("pending").Parse(`<!DOCTYPE html>
<html><body>
<h2>{{if .IsModification}}Reservation updated — awaiting re-approval{{else}}Reservation received{{end}}</h2>
<p>Hello <strong>{{.UserName}}</strong>,</p>
{{if .IsModification -}}
<p>Your reservation at {{.RestaurantName}} was updated and is pending approval again.</p>
{{- else -}}
<p>Thank you! Your reservation request at {{.RestaurantName}} has been received and is awaiting confirmation.</p>
{{- end}}
<ul>
<li>Date: {{.Date}}</li>
<li>Time: {{.Time}}</li>
<li>Party size: {{.PartySize}}</li>
{{if .SpecialRequests}}<li>Special requests: {{.SpecialRequests}}</li>{{end}}
</ul>
<p>Reservation reference: {{.ReservationID}}</p>
</body></html>`))

var rejectedTmpl = template.Must(template.New("rejected").Parse(`<!DOCTYPE html>
<html><body>
<h2>Reservation declined</h2>
<p>Hello <strong>{{.UserName}}</strong>,</p>
<p>Unfortunately we could not accommodate your reservation at {{.RestaurantName}}
on {{.Date}} at {{.Time}} for {{.PartySize}} guests.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>Reservation reference: {{.ReservationID}}</p>
</body></html>`))

var adminTmpl = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html><body>
<h2>{{if .IsModification}}Reservation modified{{else}}New reservation{{end}} — approval needed</h2>
<ul>
<li>Guest: {{.UserName}} ({{.UserEmail}}{{if .UserPhone}}, {{.UserPhone}}{{end}})</li>
<li>Date: {{.Date}} at {{.Time}}</li>
<li>Party size: {{.PartySize}}</li>
{{if .SpecialRequests}}<li>Special requests: {{.SpecialRequests}}</li>{{end}}
<li>Reference: {{.ReservationID}}</li>
</ul>
</body></html>`))

// ReservationPending emails the guest that their reservation is awaiting
// approval, and the admin inbox that there is something to approve.
func (e *EmailNotifier) ReservationPending(ctx context.Context, n service.Notification) error {
	subject := "Reservation received - " + n.RestaurantName
	if n.IsModification {
		subject = "Reservation updated - " + n.RestaurantName
	}
	var firstErr error
	if n.UserEmail != "" {
		if err := e.send(ctx, n.UserEmail, subject, pendingTmpl, n); err != nil {
			firstErr = err
		}
	}
	if e.cfg.AdminEmail != "" {
		if err := e.send(ctx, e.cfg.AdminEmail, "Approval needed - "+n.RestaurantName, adminTmpl, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReservationRejected emails the guest that their reservation was declined.
func (e *EmailNotifier) ReservationRejected(ctx context.Context, n service.Notification) error {
	if n.UserEmail == "" {
		return nil
	}
	return e.send(ctx, n.UserEmail, "Reservation declined - "+n.RestaurantName, rejectedTmpl, n)
}

func (e *EmailNotifier) send(ctx context.Context, to, subject string, tmpl *template.Template, n service.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, n); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := e.cfg.Host + ":" + e.cfg.Port
	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
