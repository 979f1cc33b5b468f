package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

// StudentStore persists students.
type StudentStore interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// SubjectStore persists subjects.
type SubjectStore interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// GradeStore persists grades.
type GradeStore interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
	ResetStudent(ctx context.Context, studentID string) (*models.ResetResult, error)
}

// TopicStore persists topics.
type TopicStore interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error)
	FindByID(ctx context.Context, id string) (*models.Topic, error)
	Create(ctx context.Context, topic *models.Topic) error
	Toggle(ctx context.Context, id string) (*models.Topic, error)
}

// Stores groups one backend's repositories.
type Stores struct {
	Students StudentStore
	Subjects SubjectStore
	Grades   GradeStore
	Topics   TopicStore
	// Ping reports backend reachability for readiness probes.
	Ping func(ctx context.Context) error
}

// NewMemoryStores returns repositories sharing a fresh in-process store.
func NewMemoryStores() *Stores {
	store := NewMemoryStore()
	return &Stores{
		Students: NewMemoryStudentRepository(store),
		Subjects: NewMemorySubjectRepository(store),
		Grades:   NewMemoryGradeRepository(store),
		Topics:   NewMemoryTopicRepository(store),
		Ping:     func(context.Context) error { return nil },
	}
}

// NewPostgresStores returns repositories backed by db.
func NewPostgresStores(db *sqlx.DB) *Stores {
	return &Stores{
		Students: NewStudentRepository(db),
		Subjects: NewSubjectRepository(db),
		Grades:   NewGradeRepository(db),
		Topics:   NewTopicRepository(db),
		Ping:     db.PingContext,
	}
}

var (
	_ StudentStore = (*MemoryStudentRepository)(nil)
	_ StudentStore = (*StudentRepository)(nil)
	_ SubjectStore = (*MemorySubjectRepository)(nil)
	_ SubjectStore = (*SubjectRepository)(nil)
	_ GradeStore   = (*MemoryGradeRepository)(nil)
	_ GradeStore   = (*GradeRepository)(nil)
	_ TopicStore   = (*MemoryTopicRepository)(nil)
	_ TopicStore   = (*TopicRepository)(nil)
)
