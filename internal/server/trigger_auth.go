package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderTriggerSecret carries the shared secret for job trigger calls.
const HeaderTriggerSecret = "X-Retainly-Secret"

// TriggerSecretRequired authenticates job triggers against the configured
// shared secret. A deployment without a secret refuses every trigger
// rather than running open.
func (s *Server) TriggerSecretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(s.cfg.TriggerSecret)
		if secret == "" {
			s.log.Warn("job trigger refused: no trigger secret configured")
			AbortWithError(c, ErrTriggerNotConfigured)
			return
		}

		provided := strings.TrimSpace(c.GetHeader(HeaderTriggerSecret))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
