package realtime

import (
	"sync"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/utils"
)

// Hub routes order and chat events to exactly the connections that should
// see them: either everyone subscribed to an order's room, or everyone
// identified as a given participant. It is created once in main and
// injected into the controllers and services that broadcast.
type Hub struct {
	mu         sync.Mutex
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	identities map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		identities: make(map[string]map[*Client]struct{}),
	}
}

func identityKey(role, participantID string) string {
	return role + ":" + participantID
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.dropFromRoom(room, c)
	}
	if c.identity != "" {
		h.dropFromIdentity(c.identity, c)
	}
	close(c.send)
}

func (h *Hub) dropFromRoom(room string, c *Client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) dropFromIdentity(key string, c *Client) {
	if conns, ok := h.identities[key]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.identities, key)
		}
	}
}

// identify rebinds the connection to a role+participant pair. A repeat
// identify (reconnect replay or role switch) moves the connection to the
// new identity bucket.
func (h *Hub) identify(c *Client, role, participantID string) {
	key := identityKey(role, participantID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.identity == key {
		return
	}
	if c.identity != "" {
		h.dropFromIdentity(c.identity, c)
	}
	c.identity = key
	if _, ok := h.identities[key]; !ok {
		h.identities[key] = make(map[*Client]struct{})
	}
	h.identities[key][c] = struct{}{}
}

// join subscribes the connection to an order room. Joining twice is a
// no-op beyond the repeated confirmation the caller sends back.
func (h *Hub) join(c *Client, orderID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := c.rooms[orderID]; ok {
		return
	}
	c.rooms[orderID] = struct{}{}
	if _, ok := h.rooms[orderID]; !ok {
		h.rooms[orderID] = make(map[*Client]struct{})
	}
	h.rooms[orderID][c] = struct{}{}
}

// audience collects the union of room members and identity holders so a
// client subscribed through both paths still receives a single copy.
func (h *Hub) audience(room string, identityKeys ...string) map[*Client]struct{} {
	targets := make(map[*Client]struct{})
	if room != "" {
		for c := range h.rooms[room] {
			targets[c] = struct{}{}
		}
	}
	for _, key := range identityKeys {
		for c := range h.identities[key] {
			targets[c] = struct{}{}
		}
	}
	return targets
}

func (h *Hub) send(targets map[*Client]struct{}, event string, data interface{}) {
	frame, err := Marshal(event, data)
	if err != nil {
		utils.ErrorLogger.Printf("marshal %s event: %v", event, err)
		return
	}
	for c := range targets {
		select {
		case c.send <- frame:
		default:
			// Slow consumer, drop the frame rather than block the hub.
			utils.ErrorLogger.Printf("dropping %s frame for slow client %s", event, c.identity)
		}
	}
}

// OrderCreated announces a freshly created order: order:new to the vendor,
// order:update to the student and anyone already in the room.
func (h *Hub) OrderCreated(order models.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.audience("", identityKey(RoleVendor, order.VendorID)), EventOrderNew, order)
	h.send(h.audience(order.ID, identityKey(RoleStudent, order.StudentID)), EventOrderUpdate, order)
}

// OrderUpdated fans a status change out to the student, the vendor and the
// order room.
func (h *Hub) OrderUpdated(order models.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.audience(order.ID,
		identityKey(RoleStudent, order.StudentID),
		identityKey(RoleVendor, order.VendorID)), EventOrderUpdate, order)
}

// OrderPaid notifies the vendor that payment was reported and pushes the
// resulting status change to the student and the room.
func (h *Hub) OrderPaid(order models.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.audience("", identityKey(RoleVendor, order.VendorID)), EventOrderPaid, order)
	h.send(h.audience(order.ID, identityKey(RoleStudent, order.StudentID)), EventOrderUpdate, order)
}

// ChatMessage fans a message out to the order room, including the sender's
// own connections so optimistic copies reconcile against the echo.
func (h *Hub) ChatMessage(msg models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.audience(msg.OrderID), EventChatMessage, msg)
}

// ChatCleared tells every open view of the order to purge its local log.
func (h *Hub) ChatCleared(orderID string, deleted int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.audience(orderID), EventChatCleared, ChatClearedPayload{OrderID: orderID, Deleted: deleted})
}

// RoomSize reports how many connections are currently in an order room.
func (h *Hub) RoomSize(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[orderID])
}
