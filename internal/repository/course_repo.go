package repository

import (
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/google/uuid"
)

// CourseRepository handles course persistence
type CourseRepository struct {
	db *DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create creates a new course
func (r *CourseRepository) Create(course *domain.Course) error {
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	if course.Status == "" {
		course.Status = "active"
	}
	course.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO courses (id, title, course_code, duration, price, level, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, course.ID, course.Title, course.Code, course.Duration, course.Price,
		course.Level, course.Status, course.CreatedAt)

	return err
}

// ListActive retrieves up to limit active courses
func (r *CourseRepository) ListActive(limit int) ([]*domain.Course, error) {
	rows, err := r.db.Query(`
		SELECT id, title, course_code, duration, price, level, status, created_at
		FROM courses WHERE status = 'active'
		ORDER BY created_at ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		course := &domain.Course{}
		if err := rows.Scan(&course.ID, &course.Title, &course.Code,
			&course.Duration, &course.Price, &course.Level, &course.Status,
			&course.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}
