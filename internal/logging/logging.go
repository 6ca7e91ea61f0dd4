package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const contextKey = "logger"

var (
	logger = logrus.New()
	mu     sync.RWMutex
)

// InitLogger configures the process logger. format is "text" or "json".
func InitLogger(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

func GetLogger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithContext stores a request-scoped entry on the gin context.
func WithContext(c *gin.Context, entry *logrus.Entry) {
	c.Set(contextKey, entry)
}

// FromContext returns the request-scoped entry, or a bare entry on the
// process logger when none was stored.
func FromContext(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(contextKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(GetLogger())
}
