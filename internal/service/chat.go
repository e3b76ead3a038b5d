package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kushal1111/LLMproject/internal/models"
)

const (
	historyLimit = 10
	titleMaxLen  = 120
)

// ChatService owns the per-user conversation documents. Updates are
// last-write-wins: the whole message list is replaced, with no
// optimistic concurrency check.
type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// List returns the caller's 10 most recently updated chats, newest
// first.
func (s *ChatService) List(userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at desc").
		Limit(historyLimit).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// Create persists a new chat owned by the caller, deriving the title
// from the first message when none is given.
func (s *ChatService) Create(userID uint, messages []models.Message, model, title string) (*models.Chat, error) {
	chat := models.Chat{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    deriveTitle(title, messages, "New Chat"),
		Messages: messages,
		Model:    model,
	}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// Update replaces the chat's message list, model and title and
// refreshes its update timestamp. The lookup is scoped to the owner,
// so a foreign chat id reads as not found.
func (s *ChatService) Update(userID uint, chatID string, messages []models.Message, model, title string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	chat.Messages = messages
	chat.Model = model
	chat.Title = deriveTitle(title, messages, "Updated Chat")
	if err := s.db.Save(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// Delete removes the caller's chat. Deleting an id that does not exist
// (or is not theirs) is a success: the end state is the same.
func (s *ChatService) Delete(userID uint, chatID string) error {
	return s.db.Where("id = ? AND user_id = ?", chatID, userID).Delete(&models.Chat{}).Error
}

// deriveTitle prefers an explicit title capped to the column size,
// then the first 50 characters of the first message, then the
// fallback.
func deriveTitle(title string, messages []models.Message, fallback string) string {
	if title != "" {
		return truncateRunes(title, titleMaxLen)
	}
	if len(messages) > 0 && messages[0].Content != "" {
		return truncateRunes(messages[0].Content, 50)
	}
	return fallback
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
