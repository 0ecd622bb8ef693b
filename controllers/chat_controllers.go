package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warinyupha/sk-food-queue/services"
	"github.com/warinyupha/sk-food-queue/utils"
)

type ChatController struct {
	Chat *services.ChatService
}

func NewChatController(chat *services.ChatService) *ChatController {
	return &ChatController{Chat: chat}
}

// GetMessages -> latest page, or the page before ?before= when present.
// Messages come back ascending; nextCursor is null once history is
// exhausted.
func (cc *ChatController) GetMessages(c *gin.Context) {
	orderID := c.Param("order_id")
	limit := services.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	var (
		msgs   interface{}
		cursor *string
		err    error
	)
	if before := c.Query("before"); before != "" {
		msgs, cursor, err = cc.Chat.FetchBefore(orderID, before, limit)
	} else {
		msgs, cursor, err = cc.Chat.FetchLatest(orderID, limit)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Chat history", gin.H{
		"messages":   msgs,
		"nextCursor": cursor,
	})
}

// SendMessage -> durable chat send; the broadcast echo to the room
// includes the sender.
func (cc *ChatController) SendMessage(c *gin.Context) {
	type ReqBody struct {
		From string `json:"from" binding:"required"`
		Text string `json:"text"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	msg, err := cc.Chat.Send(c.Param("order_id"), body.From, body.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Message sent", msg)
}

// ClearMessages -> wipe one order's chat log. Other open views purge via
// the chat:cleared broadcast.
func (cc *ChatController) ClearMessages(c *gin.Context) {
	deleted, err := cc.Chat.Clear(c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Chat history cleared", gin.H{"deleted": deleted})
}
