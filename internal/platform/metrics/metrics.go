package metrics

import (
	"time"
)

// Metrics is the counter surface the handlers and the cache layer report to.
// The nop implementation keeps instrumentation optional.
type Metrics interface {
	IncHTTPRequestStat(start time.Time, operation string, statusCode int)
	IncErrorTypeCounter(errType string, operation string)
	IncUpstreamDispatch()
}
