package repository

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/google/uuid"
)

// FAQRepository handles FAQ persistence
type FAQRepository struct {
	db *DB
}

// NewFAQRepository creates a new FAQ repository
func NewFAQRepository(db *DB) *FAQRepository {
	return &FAQRepository{db: db}
}

// Create creates a new FAQ entry
func (r *FAQRepository) Create(faq *domain.FAQ) error {
	if faq.ID == "" {
		faq.ID = uuid.New().String()
	}
	faq.CreatedAt = time.Now()

	keywordsJSON, _ := json.Marshal(faq.Keywords)

	_, err := r.db.Exec(`
		INSERT INTO faqs (id, question, answer, keywords, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, faq.ID, faq.Question, faq.Answer, string(keywordsJSON), faq.CreatedAt)

	return err
}

// Search returns the best FAQ match for a query, or nil when nothing matches.
// A keyword hit outranks a plain substring hit on the question text.
func (r *FAQRepository) Search(query string) (*domain.FAQ, error) {
	rows, err := r.db.Query(`SELECT id, question, answer, keywords, created_at FROM faqs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	query = strings.ToLower(query)

	var best *domain.FAQ
	bestScore := 0
	for rows.Next() {
		faq := &domain.FAQ{}
		var keywordsJSON sql.NullString

		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer,
			&keywordsJSON, &faq.CreatedAt); err != nil {
			return nil, err
		}
		if keywordsJSON.Valid && keywordsJSON.String != "" {
			json.Unmarshal([]byte(keywordsJSON.String), &faq.Keywords)
		}

		score := 0
		for _, kw := range faq.Keywords {
			if kw != "" && strings.Contains(query, strings.ToLower(kw)) {
				score += 2
			}
		}
		if strings.Contains(query, strings.ToLower(faq.Question)) ||
			strings.Contains(strings.ToLower(faq.Question), query) {
			score++
		}
		if score > bestScore {
			best = faq
			bestScore = score
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return best, nil
}
