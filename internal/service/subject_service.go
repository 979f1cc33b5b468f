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

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// SubjectService manages the subject catalog.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

func requireAdmin(actor *models.Actor) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}
	return nil
}

// List returns the catalog in creation order.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject ensuring name uniqueness.
func (s *SubjectService) Create(ctx context.Context, actor *models.Actor, req models.SubjectRequest) (*models.Subject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name, weight, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}

	subject := &models.Subject{Name: name, Weight: weight}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, s.mapWriteError(err, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("name", subject.Name))
	return subject, nil
}

// Update modifies name and weight. Cached averages of every student are dropped
// because a weight change shifts all overall averages.
func (s *SubjectService) Update(ctx context.Context, actor *models.Actor, id string, req models.SubjectRequest) (*models.Subject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	name, weight, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}

	subject := &models.Subject{ID: id, Name: name, Weight: weight}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, s.mapWriteError(err, "failed to update subject")
	}
	s.cache.retireAllAverages(ctx)
	return subject, nil
}

// Delete removes a subject and its topics. Subjects with grades are rejected.
func (s *SubjectService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapWriteError(err, "failed to delete subject")
	}
	s.cache.retireAllAverages(ctx)
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

func (s *SubjectService) normalize(req models.SubjectRequest) (string, float64, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	weight := models.DefaultSubjectWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	if weight <= 0 {
		return "", 0, appErrors.Validation("weight must be positive")
	}
	return req.Name, weight, nil
}

func (s *SubjectService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject name already exists")
	}
	return nil
}

func (s *SubjectService) mapWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "subject name already exists")
	case errors.Is(err, repository.ErrHasDependents):
		return appErrors.Clone(appErrors.ErrConflict, "subject still has grades")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
