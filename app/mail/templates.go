package mail

import (
	"bytes"
	"html/template"
	"net/url"
)

const (
	TemplateEmailConfirmation = "email_confirmation"
	TemplatePasswordReset     = "password_reset"
)

var (
	confirmationHTML = template.Must(template.New(TemplateEmailConfirmation).Parse(`<div>
  <p>Подтвердите регистрацию:</p>
  <p><a href="{{.}}">Подтвердить email</a></p>
  <p>Если вы не регистрировались, просто игнорируйте это письмо.</p>
</div>`))

	passwordResetHTML = template.Must(template.New(TemplatePasswordReset).Parse(`<div>
  <p>Для восстановления пароля перейдите по ссылке:</p>
  <p><a href="{{.}}">Восстановить пароль</a></p>
  <p>Если вы не запрашивали восстановление, просто игнорируйте это письмо.</p>
</div>`))
)

// ConfirmationLink points at the frontend page that calls back /auth/confirm.
func ConfirmationLink(baseURL, token string) string {
	return baseURL + "/confirm?access_token=" + url.QueryEscape(token)
}

func PasswordResetLink(baseURL, token string) string {
	return baseURL + "/new-password?access_token=" + url.QueryEscape(token)
}

func NewEmailConfirmation(to, link string) (Message, error) {
	html, err := render(confirmationHTML, link)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Template: TemplateEmailConfirmation,
		To:       to,
		Subject:  "Подтверждение регистрации",
		Text:     "Подтвердите регистрацию по ссылке: " + link,
		HTML:     html,
	}, nil
}

func NewPasswordReset(to, link string) (Message, error) {
	html, err := render(passwordResetHTML, link)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Template: TemplatePasswordReset,
		To:       to,
		Subject:  "Восстановление пароля",
		Text:     "Ссылка для восстановления пароля: " + link,
		HTML:     html,
	}, nil
}

func render(tmpl *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, template.URL(link)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
