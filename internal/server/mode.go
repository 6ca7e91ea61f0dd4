package server

import (
	"os"

	"github.com/gin-gonic/gin"
)

// SetGinMode honours GIN_MODE and falls back to release mode.
func SetGinMode() {
	if mode := os.Getenv(gin.EnvGinMode); mode != "" {
		gin.SetMode(mode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
