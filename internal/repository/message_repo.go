package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/google/uuid"
)

// MessageRepository handles conversation log persistence
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert appends a processed exchange to the log
func (r *MessageRepository) Insert(record *domain.MessageRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	metadataJSON, _ := json.Marshal(record.Metadata)
	sentimentJSON, _ := json.Marshal(record.Sentiment)

	_, err := r.db.Exec(`
		INSERT INTO messages (id, user_id, user_message, bot_response, intent,
			confidence, source, metadata, sentiment, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.UserID, record.UserMessage, record.BotResponse,
		record.Intent, record.Confidence, string(record.Source),
		string(metadataJSON), string(sentimentJSON), record.Language,
		record.Timestamp)

	return err
}

// History retrieves the most recent exchanges for a sender, oldest first
func (r *MessageRepository) History(senderID string, limit int) ([]*domain.MessageRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, user_message, bot_response, intent, confidence,
			source, metadata, sentiment, language, created_at
		FROM messages WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, senderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.MessageRecord
	for rows.Next() {
		record := &domain.MessageRecord{}
		var intent, metadataJSON, sentimentJSON, language sql.NullString
		var source string

		if err := rows.Scan(&record.ID, &record.UserID, &record.UserMessage,
			&record.BotResponse, &intent, &record.Confidence, &source,
			&metadataJSON, &sentimentJSON, &language, &record.Timestamp); err != nil {
			return nil, err
		}

		record.Source = domain.Source(source)
		if intent.Valid {
			record.Intent = intent.String
		}
		if language.Valid {
			record.Language = language.String
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			json.Unmarshal([]byte(metadataJSON.String), &record.Metadata)
		}
		if sentimentJSON.Valid && sentimentJSON.String != "" {
			json.Unmarshal([]byte(sentimentJSON.String), &record.Sentiment)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

// ClearHistory deletes all exchanges for a sender
func (r *MessageRepository) ClearHistory(senderID string) error {
	_, err := r.db.Exec(`DELETE FROM messages WHERE user_id = ?`, senderID)
	return err
}

// CountMessages returns the total number of logged exchanges
func (r *MessageRepository) CountMessages() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
