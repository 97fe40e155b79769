package mail

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is a rendered email. Template names the kind of message and is
// only used for logging and metrics.
type Message struct {
	Template string
	To       string
	Subject  string
	Text     string
	HTML     string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is used when no SMTP transport is configured. Bodies carry
// one-time links and are never logged.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"template": msg.Template,
		"email":    msg.To,
		"subject":  msg.Subject,
	}).Warn("SMTP is not configured, email not sent")
	return nil
}
