package client

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/realtime"
)

// Local message states for the two-phase optimistic insert.
const (
	MessagePending     = "pending"
	MessageConfirmed   = "confirmed"
	MessageUnconfirmed = "unconfirmed"
)

// LocalMessage is one entry of a chat view. CorrelationID is generated
// client-side and survives reconciliation; Message.ID holds the server id
// once confirmed and is empty for pending and fallback-only messages.
type LocalMessage struct {
	CorrelationID string
	State         string
	Message       models.ChatMessage
}

// DurableChat is the durable request surface the chat view needs. The
// HTTP API client implements it; tests substitute a fake.
type DurableChat interface {
	SendMessage(orderID, from, text string) (models.ChatMessage, error)
	FetchMessages(orderID, before string, limit int) ([]models.ChatMessage, *string, error)
	ClearMessages(orderID string) (int64, error)
}

// FallbackSender is the non-durable socket path used when the durable
// send fails. *Session implements it.
type FallbackSender interface {
	SendChat(orderID, from, text string) error
}

// ChatSession is one participant's live view of one order's chat. It
// mirrors the server log, inserts sends optimistically and reconciles
// every local guess against the authoritative echo: on any conflict the
// server copy wins.
type ChatSession struct {
	orderID  string
	self     string
	api      DurableChat
	fallback FallbackSender

	mu         sync.Mutex
	messages   []LocalMessage
	nextCursor *string
}

func NewChatSession(orderID, self string, api DurableChat, fallback FallbackSender) *ChatSession {
	return &ChatSession{orderID: orderID, self: self, api: api, fallback: fallback}
}

// LoadLatest replaces the view with the newest page from the server.
func (cs *ChatSession) LoadLatest(limit int) error {
	msgs, cursor, err := cs.api.FetchMessages(cs.orderID, "", limit)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.messages = cs.messages[:0]
	for _, m := range msgs {
		cs.messages = append(cs.messages, LocalMessage{State: MessageConfirmed, Message: m})
	}
	cs.nextCursor = cursor
	return nil
}

// LoadOlder prepends the page before the current cursor. A nil cursor
// means the full history is already loaded.
func (cs *ChatSession) LoadOlder(limit int) error {
	cs.mu.Lock()
	cursor := cs.nextCursor
	cs.mu.Unlock()
	if cursor == nil {
		return nil
	}
	msgs, next, err := cs.api.FetchMessages(cs.orderID, *cursor, limit)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	older := make([]LocalMessage, 0, len(msgs)+len(cs.messages))
	for _, m := range msgs {
		older = append(older, LocalMessage{State: MessageConfirmed, Message: m})
	}
	cs.messages = append(older, cs.messages...)
	cs.nextCursor = next
	return nil
}

// Send inserts the message locally, then performs the durable send. On
// success the pending copy is replaced by the authoritative message (or
// dropped if the broadcast echo already delivered it). On failure the
// message goes out over the non-durable socket path and stays visible as
// unconfirmed; it is never dropped silently.
func (cs *ChatSession) Send(text string) (LocalMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return LocalMessage{}, &EmptyMessageError{}
	}

	local := LocalMessage{
		CorrelationID: uuid.NewString(),
		State:         MessagePending,
		Message: models.ChatMessage{
			OrderID:   cs.orderID,
			From:      cs.self,
			Text:      trimmed,
			Timestamp: time.Now(),
		},
	}
	cs.mu.Lock()
	cs.messages = append(cs.messages, local)
	cs.mu.Unlock()

	confirmed, err := cs.api.SendMessage(cs.orderID, cs.self, trimmed)
	if err != nil {
		if cs.fallback != nil {
			// Best effort; the room still sees the text even though the
			// log never will.
			cs.fallback.SendChat(cs.orderID, cs.self, trimmed)
		}
		return cs.resolve(local.CorrelationID, MessageUnconfirmed, nil), err
	}
	return cs.resolve(local.CorrelationID, MessageConfirmed, &confirmed), nil
}

// resolve finishes the two-phase insert for one correlation id.
func (cs *ChatSession) resolve(correlationID, state string, confirmed *models.ChatMessage) LocalMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	idx := -1
	for i := range cs.messages {
		if cs.messages[i].CorrelationID == correlationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// The view was cleared while the send was in flight; the clear
		// fences it out.
		return LocalMessage{CorrelationID: correlationID, State: state}
	}
	if confirmed != nil {
		if cs.indexByID(confirmed.ID) >= 0 {
			// Echo arrived first; keep that copy, drop the placeholder.
			cs.messages = append(cs.messages[:idx], cs.messages[idx+1:]...)
			at := cs.indexByID(confirmed.ID)
			cs.messages[at].CorrelationID = correlationID
			return cs.messages[at]
		}
		cs.messages[idx].Message = *confirmed
	}
	cs.messages[idx].State = state
	return cs.messages[idx]
}

// HandleBroadcast folds a room echo into the view. Duplicates (already
// confirmed ids, or our own fallback text coming back) are ignored.
func (cs *ChatSession) HandleBroadcast(m models.ChatMessage) {
	if m.OrderID != cs.orderID {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if m.ID != "" && cs.indexByID(m.ID) >= 0 {
		return
	}
	if m.ID == "" && m.From == cs.self {
		// Relay echo of our own non-durable fallback; the unconfirmed
		// local copy already shows it.
		for i := range cs.messages {
			if cs.messages[i].State == MessageUnconfirmed && cs.messages[i].Message.Text == m.Text {
				return
			}
		}
	}
	state := MessageConfirmed
	if m.ID == "" {
		state = MessageUnconfirmed
	}
	cs.messages = append(cs.messages, LocalMessage{State: state, Message: m})
}

// HandleCleared purges the view when the room is told the log was wiped.
func (cs *ChatSession) HandleCleared(p realtime.ChatClearedPayload) {
	if p.OrderID != cs.orderID {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.messages = nil
	cs.nextCursor = nil
}

// Messages returns a snapshot in display order.
func (cs *ChatSession) Messages() []LocalMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]LocalMessage, len(cs.messages))
	copy(out, cs.messages)
	return out
}

// NextCursor returns the current pagination cursor, nil when no older
// history exists.
func (cs *ChatSession) NextCursor() *string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.nextCursor == nil {
		return nil
	}
	c := *cs.nextCursor
	return &c
}

// indexByID finds a message by server id; -1 if absent. Caller holds mu.
func (cs *ChatSession) indexByID(id string) int {
	for i := range cs.messages {
		if cs.messages[i].Message.ID == id {
			return i
		}
	}
	return -1
}

// EmptyMessageError rejects a send whose text trims to nothing.
type EmptyMessageError struct{}

func (e *EmptyMessageError) Error() string {
	return "message text is empty"
}
