package observes

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryOptions configures error reporting
type SentryOptions struct {
	Dsn         string
	Name        string
	Release     string
	Environment string
}

// NewSentry initializes sentry; a nil option or empty DSN skips it
func NewSentry(opt *SentryOptions) error {
	if opt == nil || opt.Dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              opt.Dsn,
		AttachStacktrace: true,
		TracesSampleRate: 1.0,
		ServerName:       opt.Name,
		Release:          opt.Release,
		Environment:      opt.Environment,
	})
}

// CaptureError reports err and waits up to timeout for delivery
func CaptureError(err error, timeout time.Duration) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.CaptureException(err)
	sentry.Flush(timeout)
}
