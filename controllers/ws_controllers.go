package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/warinyupha/sk-food-queue/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades the connection and hands it to the hub. A valid
// token query param pre-binds the identity; anonymous connections bind
// through the identify event instead.
func WSHandler(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var role, participantID string
		if r, ok := c.Get("role"); ok {
			role, _ = r.(string)
		}
		if p, ok := c.Get("participant_id"); ok {
			participantID, _ = p.(string)
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		hub.ServeConn(ws, role, participantID)
	}
}
