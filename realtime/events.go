package realtime

import (
	"encoding/json"

	"github.com/warinyupha/sk-food-queue/models"
)

// Server -> client events.
const (
	EventOrderNew    = "order:new"
	EventOrderUpdate = "order:update"
	EventOrderPaid   = "order:paid"
	EventChatMessage = "chat:message"
	EventChatCleared = "chat:cleared"
	EventChatJoined  = "chat:joined"
)

// Client -> server events. chat:message doubles as the inbound
// non-durable fallback path for sends that failed over HTTP.
const (
	EventIdentify = "identify"
	EventChatJoin = "chat:join"
)

// Participant roles carried in identify payloads and JWT claims.
const (
	RoleStudent = "student"
	RoleVendor  = "vendor"
	RoleAdmin   = "admin"
)

// Envelope is the wire frame for every websocket message, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// IdentifyPayload binds a connection to a role and participant id.
type IdentifyPayload struct {
	Role          string `json:"role"`
	ParticipantID string `json:"participantId"`
}

// JoinPayload subscribes a connection to one order's room.
type JoinPayload struct {
	OrderID string `json:"orderId"`
}

// ChatSendPayload is the inbound fallback chat send.
type ChatSendPayload struct {
	OrderID string `json:"orderId"`
	From    string `json:"from"`
	Text    string `json:"text"`
}

// ChatClearedPayload tells room members to drop their local copies.
type ChatClearedPayload struct {
	OrderID string `json:"orderId"`
	Deleted int64  `json:"deleted"`
}

// Marshal wraps a payload in the wire envelope. Both the hub and the
// client session use it so the two directions share one frame format.
func Marshal(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// DecodeOrder unmarshals an order event payload.
func DecodeOrder(raw json.RawMessage) (models.Order, error) {
	var o models.Order
	err := json.Unmarshal(raw, &o)
	return o, err
}

// DecodeChatMessage unmarshals a chat:message payload.
func DecodeChatMessage(raw json.RawMessage) (models.ChatMessage, error) {
	var m models.ChatMessage
	err := json.Unmarshal(raw, &m)
	return m, err
}

// DecodeChatCleared unmarshals a chat:cleared payload.
func DecodeChatCleared(raw json.RawMessage) (ChatClearedPayload, error) {
	var p ChatClearedPayload
	err := json.Unmarshal(raw, &p)
	return p, err
}
