package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/pgvector/pgvector-go"
)

type MemoryRepository interface {
	Insert(memory *model.Memory) error
	InsertMinimal(memory *model.Memory) error
	MatchByEmbedding(userID string, embedding pgvector.Vector, limit int) ([]*model.Memory, error)
	RecentByUser(userID string, limit int) ([]*model.Memory, error)
	CountByUser(userID string) (int, error)
	DeleteByUserID(userID string) error
}

type memoryRepository struct {
	db *sqlx.DB
}

func NewMemoryRepository(db *sqlx.DB) MemoryRepository {
	return &memoryRepository{db: db}
}

func (r *memoryRepository) Insert(memory *model.Memory) error {
	fill(memory)

	query := `
		INSERT INTO memories (id, user_id, conversation_id, content, kind, category, importance, tags, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(query,
		memory.ID,
		memory.UserID,
		memory.ConversationID,
		memory.Content,
		memory.Kind,
		memory.Category,
		memory.Importance,
		memory.Tags,
		memory.Embedding,
		memory.CreatedAt,
	)
	return err
}

// InsertMinimal writes only the columns every schema version has. Used as a
// fallback when the full insert fails.
func (r *memoryRepository) InsertMinimal(memory *model.Memory) error {
	fill(memory)

	query := `
		INSERT INTO memories (id, user_id, content, importance, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query,
		memory.ID,
		memory.UserID,
		memory.Content,
		memory.Importance,
		memory.CreatedAt,
	)
	return err
}

// MatchByEmbedding runs a cosine k-NN search over the user's memories and
// populates Similarity (1 - distance) on each result. Requires pgvector; on
// backends without it the query errors and callers fall back to recency.
func (r *memoryRepository) MatchByEmbedding(userID string, embedding pgvector.Vector, limit int) ([]*model.Memory, error) {
	rows, err := r.db.Queryx(`
		SELECT *, embedding <=> $2 AS distance FROM memories
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, userID, embedding, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []*model.Memory
	for rows.Next() {
		row := struct {
			model.Memory
			Distance float64 `db:"distance"`
		}{}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}

		m := row.Memory
		m.Similarity = 1 - row.Distance
		memories = append(memories, &m)
	}

	return memories, rows.Err()
}

func (r *memoryRepository) RecentByUser(userID string, limit int) ([]*model.Memory, error) {
	var memories []*model.Memory
	query := `
		SELECT * FROM memories
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if err := r.db.Select(&memories, query, userID, limit); err != nil {
		return nil, err
	}

	return memories, nil
}

func (r *memoryRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM memories WHERE user_id = $1`, userID)
	return count, err
}

func (r *memoryRepository) DeleteByUserID(userID string) error {
	_, err := r.db.Exec(`DELETE FROM memories WHERE user_id = $1`, userID)
	return err
}

func fill(memory *model.Memory) {
	if memory.ID == "" {
		memory.ID = uuid.New().String()
	}
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}
}
