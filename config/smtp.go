package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SMTPConfig is the resolved outbound mail transport. Enabled is false when
// no credentials are configured, in which case mail is only logged.
type SMTPConfig struct {
	Enabled bool
	Host    string
	Port    int
	SSL     bool

	// Auth is false for local catch-all servers that do not offer SMTP AUTH.
	Auth     bool
	Username string
	Password string
	From     string
}

type smtpProvider struct {
	host string
	port int
	ssl  bool
}

var smtpProviders = map[string]smtpProvider{
	"gmail":   {host: "smtp.gmail.com", port: 465, ssl: true},
	"yandex":  {host: "smtp.yandex.ru", port: 465, ssl: true},
	"mailru":  {host: "smtp.mail.ru", port: 465, ssl: true},
	"hotmail": {host: "smtp-mail.outlook.com", port: 587, ssl: false},
}

func loadSMTPConfig() (SMTPConfig, error) {
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_EMAIL")
	if user == "" || pass == "" || from == "" {
		return SMTPConfig{}, nil
	}

	cfg := SMTPConfig{
		Enabled:  true,
		Auth:     true,
		Username: user,
		Password: pass,
		From:     from,
	}

	service := strings.ToLower(os.Getenv("SMTP_SERVICE"))
	host := os.Getenv("SMTP_HOST")

	if host == "" && service == "" && getBoolEnv("DOCKER", false) {
		cfg.Host = "mailpit"
		cfg.Port = 1025
		cfg.Auth = false
		return cfg, nil
	}

	if (host == "localhost" || host == "127.0.0.1") && !getBoolEnv("SMTP_ALLOW_LOCALHOST", false) {
		return SMTPConfig{}, errors.New("SMTP_HOST points at localhost; set it to a reachable SMTP server or set SMTP_ALLOW_LOCALHOST=true")
	}

	if host == "" && service == "" {
		service = inferSMTPService(user)
	}

	if host == "" {
		if service == "" {
			return SMTPConfig{}, errors.New("SMTP_HOST/SMTP_PORT (or SMTP_SERVICE) environment variables are required")
		}
		provider, ok := smtpProviders[service]
		if !ok {
			return SMTPConfig{}, fmt.Errorf("unsupported SMTP_SERVICE %q", service)
		}
		cfg.Host = provider.host
		cfg.Port = provider.port
		cfg.SSL = provider.ssl
		return cfg, nil
	}

	cfg.Host = host
	cfg.SSL = getBoolEnv("SMTP_SECURE", false)
	cfg.Port = 587
	if cfg.SSL {
		cfg.Port = 465
	}
	if value := os.Getenv("SMTP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return SMTPConfig{}, fmt.Errorf("invalid SMTP_PORT %q", value)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func inferSMTPService(user string) string {
	at := strings.LastIndex(user, "@")
	if at < 0 {
		return ""
	}
	domain := strings.ToLower(user[at+1:])

	switch {
	case domain == "gmail.com":
		return "gmail"
	case strings.HasSuffix(domain, "yandex.ru"), strings.HasSuffix(domain, "ya.ru"):
		return "yandex"
	case domain == "mail.ru", strings.HasSuffix(domain, ".mail.ru"):
		return "mailru"
	case domain == "outlook.com", domain == "hotmail.com", domain == "live.com":
		return "hotmail"
	}
	return ""
}
