package common

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// leveledSlog adapts slog to the retryablehttp leveled logger interface.
// Client-level errors are logged at WARN because the client retries them.
type leveledSlog struct {
	inner *slog.Logger
}

func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// RobustHTTPClient returns an HTTP client with general-purpose defaults
// around timeouts and retries. The returned client has the stdlib
// http.Client interface but retries connection errors, 5xx responses
// (except 501), and 429s (respecting Retry-After) internally.
func RobustHTTPClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{slog.Default()})
	client := retryClient.StandardClient()
	client.Timeout = 20 * time.Second
	return client
}
