package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/model"
)

type MessageRepository interface {
	CreateBatch(messages []*model.Message) error
	RecentByUser(userID string, limit int) ([]*model.Message, error)
	RecentByConversation(conversationID, userID string, limit int) ([]*model.Message, error)
	CountByUser(userID string) (int, error)
	DeleteByUserID(userID string) error
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

// CreateBatch persists the messages inside one transaction so a chat turn
// saves both sides or neither.
func (r *messageRepository) CreateBatch(messages []*model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO messages (id, user_id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, m := range messages {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		if _, err := tx.Exec(query, m.ID, m.UserID, m.ConversationID, m.Role, m.Content, m.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentByUser returns the user's newest messages in chronological order.
func (r *messageRepository) RecentByUser(userID string, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	query := `
		SELECT * FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if err := r.db.Select(&messages, query, userID, limit); err != nil {
		return nil, err
	}

	reverse(messages)
	return messages, nil
}

// RecentByConversation returns the conversation's newest messages in
// chronological order, scoped to the owning user.
func (r *messageRepository) RecentByConversation(conversationID, userID string, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	query := `
		SELECT * FROM messages
		WHERE conversation_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	if err := r.db.Select(&messages, query, conversationID, userID, limit); err != nil {
		return nil, err
	}

	reverse(messages)
	return messages, nil
}

func (r *messageRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM messages WHERE user_id = $1`, userID)
	return count, err
}

func (r *messageRepository) DeleteByUserID(userID string) error {
	_, err := r.db.Exec(`DELETE FROM messages WHERE user_id = $1`, userID)
	return err
}

func reverse(messages []*model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
