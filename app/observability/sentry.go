package observability

import (
	"time"

	"github.com/worckyky/sport-booking-backend/config"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry enables error reporting when a DSN is configured. The returned
// function flushes buffered events and is safe to call when disabled.
func InitSentry(cfg *config.Config) func() {
	if cfg.Sentry.DSN == "" {
		return func() {}
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Environment:      cfg.App.Env,
	}); err != nil {
		logrus.WithError(err).Error("Sentry init failed")
		return func() {}
	}

	logrus.Info("Sentry error reporting enabled")
	return func() {
		sentry.Flush(sentryFlushTimeout)
	}
}

// CaptureError reports err with optional tags. It is a no-op without a DSN.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		sentry.CaptureException(err)
	})
}
