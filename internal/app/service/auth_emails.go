package service

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

const (
	signupSubject = "Signup Successfully!"
	resetSubject  = "Password Reset"
)

var signupTemplate = template.Must(template.New("signup").Parse(
	`<h1>Signup Completed</h1>
<p>Your account {{.Email}} is ready to use.</p>`))

var resetTemplate = template.Must(template.New("reset").Parse(
	`<p>You requested a password reset.</p>
<p>Click this <a href="{{.Link}}">link</a> to set a new password.</p>
<p>The link expires at {{.ExpiresAt}}.</p>`))

type emailMessage struct {
	Subject string
	Body    string
}

// ResetLink builds the URL embedding token as a single path segment.
func ResetLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset/" + token
}

func signupEmail(email string) (emailMessage, error) {
	var buf bytes.Buffer
	if err := signupTemplate.Execute(&buf, struct{ Email string }{email}); err != nil {
		return emailMessage{}, err
	}
	return emailMessage{Subject: signupSubject, Body: buf.String()}, nil
}

func resetEmail(baseURL, token string, expiresAt time.Time) (emailMessage, error) {
	var buf bytes.Buffer
	data := struct {
		Link      string
		ExpiresAt string
	}{
		Link:      ResetLink(baseURL, token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC1123),
	}
	if err := resetTemplate.Execute(&buf, data); err != nil {
		return emailMessage{}, err
	}
	return emailMessage{Subject: resetSubject, Body: buf.String()}, nil
}
