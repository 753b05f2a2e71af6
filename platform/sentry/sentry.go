// Package sentry reports unexpected failures to Sentry. Every function is a
// no-op until Init was called with a DSN.
package sentry

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

var enabled atomic.Bool

// sensitiveHeaders are stripped from every event before it leaves the process.
var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key", "Apikey"}

// Init configures the global Sentry client. An empty DSN disables reporting.
func Init(cfg config.SentryConfig, env string, log *logger.Logger) error {
	if cfg.GetSentryDSN() == "" {
		log.Warn("sentry dsn not configured, error tracking disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.GetSentryDSN(),
		Environment: env,
		Release:     cfg.GetSentryRelease(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrub(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}

	enabled.Store(true)
	log.Info("sentry initialized", "environment", env, "release", cfg.GetSentryRelease())
	return nil
}

// Enabled reports whether Init installed a client.
func Enabled() bool {
	return enabled.Load()
}

func scrub(event *sentry.Event) *sentry.Event {
	if event == nil || event.Request == nil || event.Request.Headers == nil {
		return event
	}
	for _, h := range sensitiveHeaders {
		delete(event.Request.Headers, h)
		delete(event.Request.Headers, http.CanonicalHeaderKey(h))
	}
	return event
}

// CaptureException sends err with the given tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil || !Enabled() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events.
func Flush(timeout time.Duration) bool {
	if !Enabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// Recover reports handler panics and re-panics so gin.Recovery still answers 500.
func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Enabled() {
			c.Next()
			return
		}

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		defer func() {
			if r := recover(); r != nil {
				hub.RecoverWithContext(c.Request.Context(), r)
				hub.Flush(2 * time.Second)
				panic(r)
			}
		}()
		c.Next()
	}
}
