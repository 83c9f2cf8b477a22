// Package middleware holds the gin middleware every route runs through.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/metrics"
	"accessible-backend/internal/response"
)

const assistiveKey = "assistive_tech"

// Accessibility attaches the accessibility signalling headers to every
// response and stamps X-Process-Time just before the response is flushed.
func Accessibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		tw := &timingWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Writer = tw

		h := tw.Header()
		for _, kv := range response.StaticHeaders() {
			h.Set(kv[0], kv[1])
		}

		assistive := response.IsAssistiveUserAgent(c.Request.UserAgent())
		c.Set(assistiveKey, assistive)
		if assistive {
			h.Set(response.HeaderAssistiveTechDetected, "true")
			h.Set(response.HeaderExtendedTimeout, "true")
			metrics.AssistiveRequestsTotal.Inc()
		}

		c.Next()

		// Handlers that only set a status leave the flush to gin itself,
		// which bypasses the wrapper.
		if !tw.Written() {
			tw.stamp()
		}
	}
}

// IsAssistive reports whether the request's User-Agent names an assistive
// technology.
func IsAssistive(c *gin.Context) bool {
	return c.GetBool(assistiveKey)
}

// timingWriter stamps the elapsed time header once, right before the status
// line goes out.
type timingWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timingWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	w.ResponseWriter.Header().Set(response.HeaderProcessTime, response.ProcessTime(w.start, time.Now()))
}

func (w *timingWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timingWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timingWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

func (w *timingWriter) Flush() {
	w.stamp()
	w.ResponseWriter.Flush()
}
