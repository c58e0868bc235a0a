package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Email is a rendered message ready for Send
type Email struct {
	Subject string
	HTML    string
}

// OrderEmail is the data behind order emails
type OrderEmail struct {
	ContactName string
	CompanyName string
	OrderID     string
	OldStatus   string
	NewStatus   string
	Comment     string
	PortalURL   string
}

// DealerEmail is the data behind account emails
type DealerEmail struct {
	ContactName string
	CompanyName string
	PortalURL   string
}

const layout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2933">
<p>Hello {{.ContactName}} at {{.CompanyName}},</p>
{{template "body" .}}
{{if .PortalURL}}<p><a href="{{.PortalURL}}">Open the dealer portal</a></p>{{end}}
<p style="color:#7b8794;font-size:12px">This message was sent by the dealer portal. Replies are not monitored.</p>
</body></html>`

var templates = map[string]string{
	"order_created": `{{define "body"}}<p>We received order <strong>{{.OrderID}}</strong>. It is awaiting payment approval; upload your proof of payment in the portal to move it forward.</p>{{end}}`,
	"order_status_changed": `{{define "body"}}<p>Order <strong>{{.OrderID}}</strong> moved from {{human .OldStatus}} to <strong>{{human .NewStatus}}</strong>.</p>` +
		`{{if .Comment}}<p>Note from our team: {{.Comment}}</p>{{end}}{{end}}`,
	"dealer_approved": `{{define "body"}}<p>Your dealer account has been approved. You can now place orders.</p>{{end}}`,
	"dealer_revoked":  `{{define "body"}}<p>Your dealer account approval has been revoked. Please contact us for details.</p>{{end}}`,
}

var subjects = map[string]string{
	"order_created":        "Order %s received",
	"order_status_changed": "Order %s is now %s",
	"dealer_approved":      "Your dealer account is approved",
	"dealer_revoked":       "Your dealer account access has changed",
}

func humanize(status string) string {
	return strings.ToLower(strings.ReplaceAll(status, "_", " "))
}

var funcs = template.FuncMap{"human": humanize}

var parsed = mustParse()

func mustParse() map[string]*template.Template {
	out := make(map[string]*template.Template, len(templates))
	for name, body := range templates {
		t := template.Must(template.New(name).Funcs(funcs).Parse(layout))
		out[name] = template.Must(t.Parse(body))
	}
	return out
}

func render(name string, data interface{}) (string, error) {
	t, ok := parsed[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderOrder renders an order_created or order_status_changed email
func RenderOrder(eventType string, data OrderEmail) (*Email, error) {
	html, err := render(eventType, data)
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf(subjects[eventType], data.OrderID)
	if eventType == "order_status_changed" {
		subject = fmt.Sprintf(subjects[eventType], data.OrderID, humanize(data.NewStatus))
	}
	return &Email{Subject: subject, HTML: html}, nil
}

// RenderDealer renders a dealer_approved or dealer_revoked email
func RenderDealer(eventType string, data DealerEmail) (*Email, error) {
	html, err := render(eventType, data)
	if err != nil {
		return nil, err
	}
	return &Email{Subject: subjects[eventType], HTML: html}, nil
}
