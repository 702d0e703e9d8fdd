package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

type Memory struct {
	ID             string           `db:"id"`
	UserID         string           `db:"user_id"`
	ConversationID *string          `db:"conversation_id"`
	Content        string           `db:"content"`
	Kind           string           `db:"kind"`
	Category       string           `db:"category"`
	Importance     int              `db:"importance"`
	Tags           StringList       `db:"tags"`
	Embedding      *pgvector.Vector `db:"embedding"`
	CreatedAt      time.Time        `db:"created_at"`

	// Similarity is only populated by vector search results (1 - distance,
	// larger is better). Not stored.
	Similarity float64 `db:"-"`
}

const (
	MemoryKindSemantic = "semantic"
	MemoryKindEpisodic = "episodic"
)

const (
	MemoryMaxContentLen = 500
	MemoryMaxTags       = 5
)

// StringList stores a slice of strings as a JSON text column so the same
// schema works on both Postgres and SQLite.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
