package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key the trace ID is stored under.
	TraceIDKey = "trace_id"
	// TraceIDHeader carries the trace ID on requests and responses, so
	// a submission complaint can be matched to its audit rows.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID assigns every request a trace ID, honoring one supplied by
// the caller. The ID is echoed on the response and flows into the
// request log and the audit trail.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace ID, or "" outside a traced
// request.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		return v.(string)
	}
	return ""
}
