package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/utils"
)

// DefaultPageSize is used when a fetch request does not name a limit.
const DefaultPageSize = 30

// MaxPageSize caps a single fetch.
const MaxPageSize = 100

// ChatService owns the per-order append-only message log: durable sends,
// cursor-paginated reads and bulk clears. Clearing and sending serialize
// through the database, so a send that commits after a clear survives it.
type ChatService struct {
	DB        *gorm.DB
	Broadcast Broadcaster
	Now       func() time.Time
}

func NewChatService(db *gorm.DB, b Broadcaster) *ChatService {
	return &ChatService{DB: db, Broadcast: b, Now: time.Now}
}

// Send appends a message to the order's log and fans it out to the room.
// The broadcast echo reaches the sender too; clients reconcile their
// optimistic copy against it by message id.
func (s *ChatService) Send(orderID, from, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, validationErrorf("message text is empty")
	}
	if from == "" {
		return models.ChatMessage{}, validationErrorf("sender is required")
	}
	if err := s.DB.First(&models.Order{}, "id = ?", orderID).Error; err != nil {
		return models.ChatMessage{}, err
	}

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		From:      from,
		Text:      text,
		Timestamp: s.Now(),
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		return models.ChatMessage{}, err
	}
	s.Broadcast.ChatMessage(msg)
	return msg, nil
}

// FetchLatest returns the newest limit messages in ascending order plus a
// cursor just before the oldest returned one, or nil when nothing older
// exists.
func (s *ChatService) FetchLatest(orderID string, limit int) ([]models.ChatMessage, *string, error) {
	return s.fetchPage(orderID, nil, limit)
}

// FetchBefore returns up to limit messages strictly older than the
// cursor, same ordering and cursor semantics as FetchLatest.
func (s *ChatService) FetchBefore(orderID, cursor string, limit int) ([]models.ChatMessage, *string, error) {
	ts, id, err := decodeCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	return s.fetchPage(orderID, &cursorPoint{ts: ts, id: id}, limit)
}

type cursorPoint struct {
	ts time.Time
	id string
}

func (s *ChatService) fetchPage(orderID string, before *cursorPoint, limit int) ([]models.ChatMessage, *string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	q := s.DB.Where("order_id = ?", orderID)
	if before != nil {
		q = q.Where("timestamp < ? OR (timestamp = ? AND id < ?)", before.ts, before.ts, before.id)
	}

	var page []models.ChatMessage
	if err := q.Order("timestamp DESC, id DESC").Limit(limit).Find(&page).Error; err != nil {
		return nil, nil, err
	}
	// Query runs newest-first for the LIMIT; callers want ascending.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	if len(page) == 0 {
		return []models.ChatMessage{}, nil, nil
	}

	oldest := page[0]
	older, err := s.hasOlder(orderID, oldest)
	if err != nil {
		return nil, nil, err
	}
	if !older {
		return page, nil, nil
	}
	next := encodeCursor(oldest.Timestamp, oldest.ID)
	return page, &next, nil
}

func (s *ChatService) hasOlder(orderID string, than models.ChatMessage) (bool, error) {
	var count int64
	err := s.DB.Model(&models.ChatMessage{}).
		Where("order_id = ?", orderID).
		Where("timestamp < ? OR (timestamp = ? AND id < ?)", than.Timestamp, than.Timestamp, than.ID).
		Count(&count).Error
	return count > 0, err
}

// Clear deletes every message of one order and tells the room to purge.
// The order record itself is untouched.
func (s *ChatService) Clear(orderID string) (int64, error) {
	res := s.DB.Where("order_id = ?", orderID).Delete(&models.ChatMessage{})
	if res.Error != nil {
		return 0, res.Error
	}
	utils.InfoLogger.Printf("cleared %d chat messages for order %s", res.RowsAffected, orderID)
	s.Broadcast.ChatCleared(orderID, res.RowsAffected)
	return res.RowsAffected, nil
}
