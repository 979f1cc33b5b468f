package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

// ChatBackend is the language model behind the assistant. pkg/assistant.Gemini satisfies it.
type ChatBackend interface {
	Reply(ctx context.Context, instruction, message string) (string, error)
}

type gradeLister interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
}

type topicLister interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error)
}

// AssistantConfig tunes the assistant bridge.
type AssistantConfig struct {
	Timeout         time.Duration
	FallbackMessage string
}

// AssistantService forwards questions to the chat backend together with the
// caller's grade context. Backend failures never surface as errors; the
// caller receives the fallback message instead.
type AssistantService struct {
	backend   ChatBackend
	students  studentFinder
	grades    gradeLister
	subjects  subjectReader
	topics    topicLister
	engine    *AverageEngine
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AssistantConfig
}

// NewAssistantService constructs an AssistantService. A nil backend always answers with the fallback.
func NewAssistantService(backend ChatBackend, students studentFinder, grades gradeLister, subjects subjectReader, topics topicLister, engine *AverageEngine, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AssistantConfig) *AssistantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = "Entschuldigung, ich bin gerade etwas verwirrt. Versuche es später nochmal."
	}
	return &AssistantService{
		backend:   backend,
		students:  students,
		grades:    grades,
		subjects:  subjects,
		topics:    topics,
		engine:    engine,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Chat answers a message. actor may be nil for anonymous callers.
func (s *AssistantService) Chat(ctx context.Context, actor *models.Actor, req models.ChatRequest) (*models.ChatResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}

	studentContext, err := s.studentContext(ctx, contextStudent(actor, req.StudentID))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if s.backend == nil {
		s.metrics.RecordAssistant(true, time.Since(start))
		return s.fallback(), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	reply, err := s.backend.Reply(callCtx, s.instruction(studentContext), req.Message)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		s.metrics.RecordAssistant(true, time.Since(start))
		s.logger.Warn("assistant backend failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return s.fallback(), nil
	}

	s.metrics.RecordAssistant(false, time.Since(start))
	return &models.ChatResponse{Reply: reply}, nil
}

func (s *AssistantService) fallback() *models.ChatResponse {
	return &models.ChatResponse{Reply: s.cfg.FallbackMessage, Fallback: true}
}

// contextStudent picks whose grades enrich the prompt. Students only ever see
// themselves; admins may name a student; anonymous callers get none.
func contextStudent(actor *models.Actor, requested string) string {
	switch {
	case actor == nil:
		return ""
	case actor.Role == models.RoleStudent:
		return actor.StudentID
	case actor.IsAdmin():
		return requested
	}
	return ""
}

func (s *AssistantService) studentContext(ctx context.Context, studentID string) (string, error) {
	if studentID == "" {
		return "", nil
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "Student not found.", nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{StudentID: studentID})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Student name: %s\n\nAcademic performance:\n", student.Name)

	averages, err := s.engine.Compute(studentID, grades, subjects)
	bySubject := map[string]models.SubjectAverage{}
	if err == nil {
		for _, sub := range averages.Subjects {
			bySubject[sub.SubjectID] = sub
		}
	}
	for _, subject := range subjects {
		values := make([]string, 0)
		for _, g := range grades {
			if g.SubjectID == subject.ID {
				values = append(values, fmt.Sprintf("%g", g.Value))
			}
		}
		if sub, ok := bySubject[subject.ID]; ok {
			fmt.Fprintf(&b, "- %s (weight %g): average %.2f, grades [%s], trend %s\n", subject.Name, subject.Weight, sub.Average, strings.Join(values, ", "), sub.Trend.Direction)
		} else {
			fmt.Fprintf(&b, "- %s (weight %g): no grades yet\n", subject.Name, subject.Weight)
		}
	}
	if averages != nil {
		fmt.Fprintf(&b, "Overall weighted average: %.2f\n", averages.Overall)
	}

	b.WriteString("\nLearning topics:\n")
	for _, subject := range subjects {
		topics, err := s.topics.ListBySubject(ctx, subject.ID)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topics")
		}
		for _, t := range topics {
			mark := "[ ]"
			if t.IsCompleted {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "%s %s (%s)\n", mark, t.Name, subject.Name)
		}
	}
	return b.String(), nil
}

func (s *AssistantService) instruction(studentContext string) string {
	scale := s.engine.Scale()
	var b strings.Builder
	b.WriteString("You are a helpful, encouraging learning coach for a school student.\n")
	b.WriteString("Help them learn, reflect on their grades and prepare for exams.\n\n")
	fmt.Fprintf(&b, "Grading system: scale %g to %g, %g is the best grade and %g the worst. ", scale.Min, scale.Max, scale.Max, scale.Min)
	fmt.Fprintf(&b, "An overall average of %g or more passes.\n\n", s.engine.PassThreshold())
	if studentContext != "" {
		b.WriteString("Current student context:\n")
		b.WriteString(studentContext)
		b.WriteString("\n")
	}
	b.WriteString("Be friendly and age-appropriate. Use the grade context for specific advice. ")
	b.WriteString("Do not give direct answers to homework questions, guide the student instead.")
	return b.String()
}
