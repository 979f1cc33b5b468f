package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

const topicColumns = "id, subject_id, name, is_completed, created_at"

// TopicRepository handles persistence for subject topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new repository instance.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// ListBySubject returns a subject's topics in insertion order.
func (r *TopicRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics WHERE subject_id = $1 ORDER BY seq"
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, subjectID); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// FindByID returns a topic by id.
func (r *TopicRepository) FindByID(ctx context.Context, id string) (*models.Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics WHERE id = $1"
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}

// Create persists a new topic.
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO topics (id, subject_id, name, is_completed, created_at) VALUES (:id, :subject_id, :name, :is_completed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("create topic: %w", translate(err, ErrMissingReference))
	}
	return nil
}

// Toggle flips the completion flag and returns the updated topic.
func (r *TopicRepository) Toggle(ctx context.Context, id string) (*models.Topic, error) {
	query := "UPDATE topics SET is_completed = NOT is_completed WHERE id = $1 RETURNING " + topicColumns
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}
