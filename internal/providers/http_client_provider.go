package providers

import (
	"annolist/internal/structures"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultBackendTimeout = 10 * time.Second
	retryWaitMin          = 100 * time.Millisecond
	retryWaitMax          = 2 * time.Second
)

// backendLogger routes retryablehttp messages to the backend log.
type backendLogger struct {
	logger Logger
}

func (l *backendLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorf(TypeBackend, "%s", joinKV(msg, keysAndValues))
}

func (l *backendLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infof(TypeBackend, "%s", joinKV(msg, keysAndValues))
}

func (l *backendLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugf(TypeBackend, "%s", joinKV(msg, keysAndValues))
}

func (l *backendLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnf(TypeBackend, "%s", joinKV(msg, keysAndValues))
}

func joinKV(msg string, kv []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

// NewHTTPClientProvider builds the client shared by the Grafana and InfluxDB
// backends. Idempotent GETs are retried on connection errors and 5xx.
func NewHTTPClientProvider(conf *structures.Config, logger Logger) *http.Client {
	timeout := conf.Grafana.Timeout
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = conf.Grafana.RetryMax
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.HTTPClient.Timeout = timeout
	rc.Logger = &backendLogger{logger: logger}

	return rc.StandardClient()
}
