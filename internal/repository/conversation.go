package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/model"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
)

type ConversationRepository interface {
	Create(conversation *model.Conversation) error
	ByID(id, userID string) (*model.Conversation, error)
	LatestActive(userID string, companionID *string) (*model.Conversation, error)
	Touch(id string) error
	DeleteByUserID(userID string) error
}

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(conversation *model.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now()
	}
	if conversation.UpdatedAt.IsZero() {
		conversation.UpdatedAt = conversation.CreatedAt
	}

	query := `
		INSERT INTO conversations (id, user_id, companion_id, title, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query,
		conversation.ID,
		conversation.UserID,
		conversation.CompanionID,
		conversation.Title,
		conversation.Archived,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	return err
}

// ByID is scoped to the owning user so one user cannot read another's
// conversation by guessing IDs.
func (r *conversationRepository) ByID(id, userID string) (*model.Conversation, error) {
	conversation := &model.Conversation{}
	query := `SELECT * FROM conversations WHERE id = $1 AND user_id = $2`

	err := r.db.Get(conversation, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return conversation, nil
}

// LatestActive returns the newest unarchived conversation for the user and
// companion. A nil companionID matches conversations with no companion.
func (r *conversationRepository) LatestActive(userID string, companionID *string) (*model.Conversation, error) {
	conversation := &model.Conversation{}

	var err error
	if companionID == nil {
		query := `
			SELECT * FROM conversations
			WHERE user_id = $1 AND companion_id IS NULL AND archived = FALSE
			ORDER BY updated_at DESC
			LIMIT 1
		`
		err = r.db.Get(conversation, query, userID)
	} else {
		query := `
			SELECT * FROM conversations
			WHERE user_id = $1 AND companion_id = $2 AND archived = FALSE
			ORDER BY updated_at DESC
			LIMIT 1
		`
		err = r.db.Get(conversation, query, userID, *companionID)
	}

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return conversation, nil
}

func (r *conversationRepository) Touch(id string) error {
	result, err := r.db.Exec(`UPDATE conversations SET updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConversationNotFound
	}

	return nil
}

func (r *conversationRepository) DeleteByUserID(userID string) error {
	_, err := r.db.Exec(`DELETE FROM conversations WHERE user_id = $1`, userID)
	return err
}
