// Package logging sets up the process logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at the named level. Unknown levels
// fall back to info with a warning.
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := ParseLevel(level)
	logger.SetLevel(lvl)
	if err != nil {
		logger.Warnf("[CONFIG]: invalid LOG_LEVEL %q, using info", level)
	}
	return logger
}

// ParseLevel accepts logrus level names in any case, plus the "warn" and
// "critical" spellings. The empty string is info.
func ParseLevel(level string) (logrus.Level, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	switch name {
	case "":
		return logrus.InfoLevel, nil
	case "critical":
		return logrus.FatalLevel, nil
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel, err
	}
	return lvl, nil
}

// RequestIDKey is the gin context key holding the request id, if any.
const RequestIDKey = "request_id"

// AccessLog logs one entry per request with the fields of the Apache
// combined format plus latency and request id.
func AccessLog(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"proto":      c.Request.Proto,
			"status":     status,
			"size":       c.Writer.Size(),
			"referer":    c.Request.Referer(),
			"user_agent": c.Request.UserAgent(),
			"latency":    time.Since(start).String(),
		})
		if id := c.GetString(RequestIDKey); id != "" {
			entry = entry.WithField("request_id", id)
		}

		switch {
		case status >= 500:
			entry.Error("[WEB]: request")
		case status >= 400:
			entry.Warn("[WEB]: request")
		default:
			entry.Info("[WEB]: request")
		}
	}
}
