package domain

import "time"

// Course represents a course offering queried by the rule cascade.
type Course struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"course_code"`
	Duration  string    `json:"duration"`
	Price     float64   `json:"price"`
	Level     string    `json:"level"`
	Status    string    `json:"status"` // active, archived
	CreatedAt time.Time `json:"created_at"`
}

// FAQ represents a frequently asked question searched by the rule cascade.
type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
