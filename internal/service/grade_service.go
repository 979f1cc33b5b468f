package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/internal/repository"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type studentReader interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type subjectReader interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// GradeService records grades and serves the averages derived from them.
type GradeService struct {
	grades    gradeRepository
	students  studentReader
	subjects  subjectReader
	engine    *AverageEngine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService. cache and metrics may be nil.
func NewGradeService(grades gradeRepository, students studentReader, subjects subjectReader, engine *AverageEngine, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:    grades,
		students:  students,
		subjects:  subjects,
		engine:    engine,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// resolveStudent determines whose data a call targets. Students always act on
// themselves; admins must name a student unless allowAll is set.
func resolveStudent(actor *models.Actor, requested string, allowAll bool) (string, error) {
	requested = strings.TrimSpace(requested)
	if actor == nil {
		return "", appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleStudent:
		if actor.StudentID == "" {
			return "", appErrors.ErrForbidden
		}
		if requested != "" && requested != actor.StudentID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "students may only access their own grades")
		}
		return actor.StudentID, nil
	case models.RoleAdmin:
		if requested == "" && !allowAll {
			return "", appErrors.Validation("student_id is required")
		}
		return requested, nil
	}
	return "", appErrors.ErrForbidden
}

// Create validates and stores a grade, then drops the student's cached averages.
func (s *GradeService) Create(ctx context.Context, actor *models.Actor, req models.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	studentID, err := resolveStudent(actor, req.StudentID, false)
	if err != nil {
		return nil, err
	}

	scale := s.engine.Scale()
	if !scale.Contains(*req.Value) {
		return nil, appErrors.Validation(fmt.Sprintf("value must be between %g and %g", scale.Min, scale.Max))
	}

	grade := &models.Grade{
		StudentID: studentID,
		SubjectID: req.SubjectID,
		Value:     *req.Value,
		Type:      strings.TrimSpace(req.Type),
		Date:      *req.Date,
	}
	if grade.Type == "" {
		grade.Type = models.DefaultGradeType
	}

	if err := s.grades.Create(ctx, grade); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student_id or subject_id does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.cache.retireStudentAverages(ctx, studentID)
	s.metrics.RecordGradeMutation(GradeOpCreate, 1)
	s.logger.Info("grade recorded",
		zap.String("grade_id", grade.ID),
		zap.String("student_id", grade.StudentID),
		zap.String("subject_id", grade.SubjectID),
		zap.Float64("value", grade.Value),
	)
	return grade, nil
}

// List returns matching grades together with the averages of every student
// that appears in the filter scope. Averages cover a student's full grade set,
// not only the filtered subset.
func (s *GradeService) List(ctx context.Context, actor *models.Actor, filter models.GradeFilter) (*models.GradeListing, error) {
	studentID, err := resolveStudent(actor, filter.StudentID, true)
	if err != nil {
		return nil, err
	}
	filter.StudentID = studentID
	filter.SubjectID = strings.TrimSpace(filter.SubjectID)

	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.Grade{}
	}

	var studentIDs []string
	if studentID != "" {
		studentIDs = []string{studentID}
	} else {
		students, err := s.students.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		for _, st := range students {
			studentIDs = append(studentIDs, st.ID)
		}
	}

	listing := &models.GradeListing{Grades: grades, Averages: make([]models.StudentAveragesResult, 0, len(studentIDs))}
	for _, id := range studentIDs {
		avg, _, err := s.averagesFor(ctx, id)
		if err != nil && !errors.Is(err, appErrors.ErrNoData) {
			return nil, err
		}
		listing.Averages = append(listing.Averages, models.StudentAveragesResult{StudentID: id, Averages: avg})
	}
	return listing, nil
}

// Get returns a single grade visible to the actor.
func (s *GradeService) Get(ctx context.Context, actor *models.Actor, id string) (*models.Grade, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if !actor.CanAccessStudent(grade.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "grade belongs to another student")
	}
	return grade, nil
}

// Delete removes a grade owned by the actor, or any grade for admins.
func (s *GradeService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	grade, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.grades.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}

	s.cache.retireStudentAverages(ctx, grade.StudentID)
	s.metrics.RecordGradeMutation(GradeOpDelete, 1)
	s.logger.Info("grade deleted", zap.String("grade_id", id), zap.String("student_id", grade.StudentID))
	return nil
}

// Averages returns the averages of one student and whether they came from cache.
func (s *GradeService) Averages(ctx context.Context, actor *models.Actor, studentID string) (*models.StudentAverages, bool, error) {
	studentID, err := resolveStudent(actor, studentID, false)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, false, err
	}
	return s.averagesFor(ctx, studentID)
}

// Predict computes the grade needed in a subject to lift the overall average
// to the requested target, or to the pass threshold when none is given.
func (s *GradeService) Predict(ctx context.Context, actor *models.Actor, studentID string, req models.PredictionRequest) (*models.Prediction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prediction payload")
	}
	studentID, err := resolveStudent(actor, studentID, false)
	if err != nil {
		return nil, err
	}

	target := s.engine.PassThreshold()
	if req.Target != nil {
		target = *req.Target
	}
	scale := s.engine.Scale()
	if !scale.Contains(target) {
		return nil, appErrors.Validation(fmt.Sprintf("target must be between %g and %g", scale.Min, scale.Max))
	}

	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	grades, subjects, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.engine.RequiredGrade(studentID, grades, subjects, req.SubjectID, target)
}

func (s *GradeService) requireStudent(ctx context.Context, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *GradeService) load(ctx context.Context, studentID string) ([]models.Grade, []models.Subject, error) {
	grades, err := s.grades.List(ctx, models.GradeFilter{StudentID: studentID})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return grades, subjects, nil
}

// averagesFor serves averages from cache when possible. ErrNoData results are not cached.
func (s *GradeService) averagesFor(ctx context.Context, studentID string) (*models.StudentAverages, bool, error) {
	key, keyErr := s.cache.averagesKey(ctx, studentID)
	if keyErr == nil {
		var cached models.StudentAverages
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	} else {
		s.logger.Debug("averages cache generation unavailable", zap.String("student_id", studentID), zap.Error(keyErr))
	}

	grades, subjects, err := s.load(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	averages, err := s.engine.Compute(studentID, grades, subjects)
	if err != nil {
		return nil, false, err
	}

	if keyErr == nil {
		if err := s.cache.Set(ctx, key, averages, 0); err != nil {
			s.logger.Debug("averages not cached", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return averages, false, nil
}
