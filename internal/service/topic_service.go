package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/internal/repository"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

type topicRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error)
	FindByID(ctx context.Context, id string) (*models.Topic, error)
	Create(ctx context.Context, topic *models.Topic) error
	Toggle(ctx context.Context, id string) (*models.Topic, error)
}

// TopicService manages the learning checklist of each subject.
type TopicService struct {
	repo      topicRepository
	subjects  subjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTopicService constructs a TopicService.
func NewTopicService(repo topicRepository, subjects subjectReader, validate *validator.Validate, logger *zap.Logger) *TopicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// ListBySubject returns the topics of an existing subject.
func (s *TopicService) ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	topics, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topics")
	}
	if topics == nil {
		topics = []models.Topic{}
	}
	return topics, nil
}

// Create adds a topic to a subject. Admin only.
func (s *TopicService) Create(ctx context.Context, actor *models.Actor, req models.TopicRequest) (*models.Topic, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}

	topic := &models.Topic{SubjectID: req.SubjectID, Name: req.Name}
	if err := s.repo.Create(ctx, topic); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject_id does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create topic")
	}
	return topic, nil
}

// Toggle flips a topic's completion flag.
func (s *TopicService) Toggle(ctx context.Context, id string) (*models.Topic, error) {
	topic, err := s.repo.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle topic")
	}
	return topic, nil
}
