// Package client is the Go client for the food queue service: a
// websocket session that survives reconnects, plus an order-scoped chat
// view with optimistic sends.
package client

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/realtime"
	"github.com/warinyupha/sk-food-queue/utils"
)

// Connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

// ErrNotConnected is returned by socket emits while the session is
// between connections. Durable operations do not go through the socket
// and are unaffected.
var ErrNotConnected = errors.New("session not connected")

// DefaultRetryDelay is the pause between reconnect attempts.
const DefaultRetryDelay = time.Second

// Handlers receives pushed events. Nil entries are skipped. Handlers run
// on the session's read goroutine, one event at a time, in the order the
// server committed them.
type Handlers struct {
	OnConnect     func()
	OnDisconnect  func(error)
	OnOrderNew    func(models.Order)
	OnOrderUpdate func(models.Order)
	OnOrderPaid   func(models.Order)
	OnChatMessage func(models.ChatMessage)
	OnChatCleared func(realtime.ChatClearedPayload)
	OnChatJoined  func(orderID string)
}

// Session owns one logical connection to the realtime endpoint. It keeps
// the last identity and the joined room set itself and replays both on
// every reconnect, so membership survives drops without caller action.
// Unlike a package-global socket, a Session is constructed and injected,
// which keeps tests isolated.
type Session struct {
	url        string
	dialer     *websocket.Dialer
	handlers   Handlers
	RetryDelay time.Duration

	mu       sync.Mutex
	state    string
	identity *realtime.IdentifyPayload
	rooms    map[string]struct{}
	conn     *websocket.Conn
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewSession(url string, handlers Handlers) *Session {
	return &Session{
		url:        url,
		dialer:     websocket.DefaultDialer,
		handlers:   handlers,
		RetryDelay: DefaultRetryDelay,
		state:      StateDisconnected,
		rooms:      make(map[string]struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the connect/read/reconnect loop. Reconnection retries
// forever; the only way out is Close.
func (s *Session) Start() {
	s.wg.Add(1)
	go s.run()
}

// Close tears the session down and stops reconnecting.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.wg.Wait()
}

// State reports the connection state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identify binds this logical client to a role and participant id. The
// binding is remembered and re-announced on every reconnect.
func (s *Session) Identify(role, participantID string) {
	s.mu.Lock()
	s.identity = &realtime.IdentifyPayload{Role: role, ParticipantID: participantID}
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		s.emit(realtime.EventIdentify, realtime.IdentifyPayload{Role: role, ParticipantID: participantID})
	}
}

// JoinRoom subscribes to an order's room. Additive and idempotent:
// joining an already-joined room just produces another confirmation.
func (s *Session) JoinRoom(orderID string) {
	s.mu.Lock()
	s.rooms[orderID] = struct{}{}
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		s.emit(realtime.EventChatJoin, realtime.JoinPayload{OrderID: orderID})
	}
}

// LeaveRoom forgets a room locally so it is not rejoined after the next
// reconnect. There is no server-side leave event yet.
func (s *Session) LeaveRoom(orderID string) {
	s.mu.Lock()
	delete(s.rooms, orderID)
	s.mu.Unlock()
}

// SendChat emits the non-durable chat fallback. Best effort: the message
// is relayed to the room but never written to the log.
func (s *Session) SendChat(orderID, from, text string) error {
	return s.emit(realtime.EventChatMessage, realtime.ChatSendPayload{OrderID: orderID, From: from, Text: text})
}

func (s *Session) emit(event string, data interface{}) error {
	frame, err := realtime.Marshal(event, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Session) run() {
	defer s.wg.Done()
	for {
		s.setState(StateConnecting)
		conn, _, err := s.dialer.Dial(s.url, nil)
		if err != nil {
			utils.ErrorLogger.Printf("dial %s: %v", s.url, err)
			if s.sleepOrDone() {
				return
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conn = conn
		s.state = StateConnected
		s.mu.Unlock()

		// Recovery on every transition into connected: identity first,
		// then each previously joined room.
		s.replay()
		if s.handlers.OnConnect != nil {
			s.handlers.OnConnect()
		}

		err = s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.state = StateDisconnected
		closed := s.closed
		s.mu.Unlock()
		conn.Close()
		if s.handlers.OnDisconnect != nil {
			s.handlers.OnDisconnect(err)
		}
		if closed {
			return
		}
		if s.sleepOrDone() {
			return
		}
	}
}

func (s *Session) replay() {
	s.mu.Lock()
	identity := s.identity
	rooms := make([]string, 0, len(s.rooms))
	for room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.Unlock()

	if identity != nil {
		if err := s.emit(realtime.EventIdentify, *identity); err != nil {
			utils.ErrorLogger.Printf("replay identify: %v", err)
		}
	}
	for _, room := range rooms {
		if err := s.emit(realtime.EventChatJoin, realtime.JoinPayload{OrderID: room}); err != nil {
			utils.ErrorLogger.Printf("replay join %s: %v", room, err)
		}
	}
}

func (s *Session) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env realtime.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			utils.ErrorLogger.Printf("bad frame from server: %v", err)
			continue
		}
		s.dispatch(env)
	}
}

func (s *Session) dispatch(env realtime.Envelope) {
	switch env.Event {
	case realtime.EventOrderNew:
		if s.handlers.OnOrderNew == nil {
			return
		}
		if o, err := realtime.DecodeOrder(env.Data); err == nil {
			s.handlers.OnOrderNew(o)
		}
	case realtime.EventOrderUpdate:
		if s.handlers.OnOrderUpdate == nil {
			return
		}
		if o, err := realtime.DecodeOrder(env.Data); err == nil {
			s.handlers.OnOrderUpdate(o)
		}
	case realtime.EventOrderPaid:
		if s.handlers.OnOrderPaid == nil {
			return
		}
		if o, err := realtime.DecodeOrder(env.Data); err == nil {
			s.handlers.OnOrderPaid(o)
		}
	case realtime.EventChatMessage:
		if s.handlers.OnChatMessage == nil {
			return
		}
		if m, err := realtime.DecodeChatMessage(env.Data); err == nil {
			s.handlers.OnChatMessage(m)
		}
	case realtime.EventChatCleared:
		if s.handlers.OnChatCleared == nil {
			return
		}
		if p, err := realtime.DecodeChatCleared(env.Data); err == nil {
			s.handlers.OnChatCleared(p)
		}
	case realtime.EventChatJoined:
		if s.handlers.OnChatJoined == nil {
			return
		}
		var p realtime.JoinPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			s.handlers.OnChatJoined(p.OrderID)
		}
	default:
		utils.ErrorLogger.Printf("unknown server event %q", env.Event)
	}
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// sleepOrDone waits out the retry delay, returning true if the session
// was closed meanwhile.
func (s *Session) sleepOrDone() bool {
	select {
	case <-s.done:
		return true
	case <-time.After(s.RetryDelay):
		return false
	}
}
