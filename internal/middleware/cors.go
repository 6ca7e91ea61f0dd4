package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EchoRequestedHeaders grants every header a preflight asks for by writing
// Access-Control-Request-Headers back as Access-Control-Allow-Headers. It must
// be registered before the cors middleware. Preflights that cors rejects carry
// no Access-Control-Allow-Origin and are left alone.
func EchoRequestedHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.GetHeader("Access-Control-Request-Headers")
		if c.Request.Method != http.MethodOptions || requested == "" {
			c.Next()
			return
		}

		original := c.Writer
		c.Writer = &preflightWriter{ResponseWriter: original, requested: requested}
		c.Next()
		c.Writer = original
	}
}

type preflightWriter struct {
	gin.ResponseWriter
	requested string
}

func (w *preflightWriter) WriteHeader(code int) {
	w.grantRequested()
	w.ResponseWriter.WriteHeader(code)
}

func (w *preflightWriter) WriteHeaderNow() {
	w.grantRequested()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *preflightWriter) grantRequested() {
	if w.Written() {
		return
	}
	header := w.Header()
	if header.Get("Access-Control-Allow-Origin") == "" {
		return
	}
	header.Set("Access-Control-Allow-Headers", w.requested)
}
