package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const userIDHeader = "X-User-ID"

// RequireUser resolves the caller identity from the X-User-ID header set by
// the authenticating proxy in front of this service. Requests without a
// valid identity are rejected.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		ownerID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}

		c.Set("owner_id", ownerID)
		c.Next()
	}
}

func ownerID(c *gin.Context) uuid.UUID {
	return c.MustGet("owner_id").(uuid.UUID)
}

// RequestTime logs the handling time of every request.
func RequestTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.Infof("request time: %v %v: %v", c.Request.Method, c.FullPath(), time.Since(start))
	}
}
