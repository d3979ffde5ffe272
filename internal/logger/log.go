package logger

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bodyLimit caps how much of a request/response body ends up in one log entry.
const bodyLimit = 8 * 1024

// GinLogMiddleware emits one structured log record per request, including the
// request and response bodies. Bodies beyond bodyLimit are truncated.
func GinLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestBody := readRequestBody(c)

		// overwrite the gin.Context.Writer to capture the response body
		respWriter := &respLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = respWriter

		c.Next()

		GetLogger().Info("request",
			zap.String("request_id", c.GetHeader("X-Request-Id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_body", truncate(requestBody)),
			zap.String("response_body", truncate(respWriter.body.String())),
		)
	}
}

func readRequestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	requestBodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	// reattach request body for later use
	c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBodyBytes))
	return string(requestBodyBytes)
}

func truncate(s string) string {
	if len(s) <= bodyLimit {
		return s
	}
	return s[:bodyLimit] + "...TRUNCATED"
}

type respLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *respLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *respLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
