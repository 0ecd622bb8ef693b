package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/warinyupha/sk-food-queue/utils"
)

// WebSocketAuthMiddleware binds the identity from a token query param
// when one is present. Connections without a token stay anonymous and
// identify over the socket instead, so this never aborts.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token != "" {
			if claims, err := utils.ParseToken(token); err == nil {
				c.Set("role", claims.Role)
				c.Set("participant_id", claims.ParticipantID)
			}
		}
		c.Next()
	}
}
