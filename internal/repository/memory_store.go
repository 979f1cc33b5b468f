package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

// orderedTable keeps rows by id while remembering insertion order.
type orderedTable[T any] struct {
	rows  map[string]T
	order []string
}

func newOrderedTable[T any]() *orderedTable[T] {
	return &orderedTable[T]{rows: make(map[string]T)}
}

func (t *orderedTable[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *orderedTable[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *orderedTable[T]) remove(id string) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// each visits rows in insertion order until fn returns false.
func (t *orderedTable[T]) each(fn func(T) bool) {
	for _, id := range t.order {
		if !fn(t.rows[id]) {
			return
		}
	}
}

// MemoryStore is the in-process entity store. All tables share one lock so
// reference checks and the write they guard happen atomically.
type MemoryStore struct {
	mu       sync.RWMutex
	students *orderedTable[models.Student]
	subjects *orderedTable[models.Subject]
	grades   *orderedTable[models.Grade]
	topics   *orderedTable[models.Topic]
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students: newOrderedTable[models.Student](),
		subjects: newOrderedTable[models.Subject](),
		grades:   newOrderedTable[models.Grade](),
		topics:   newOrderedTable[models.Topic](),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) studentHasGrades(studentID string) bool {
	found := false
	s.grades.each(func(g models.Grade) bool {
		found = g.StudentID == studentID
		return !found
	})
	return found
}

func (s *MemoryStore) subjectHasGrades(subjectID string) bool {
	found := false
	s.grades.each(func(g models.Grade) bool {
		found = g.SubjectID == subjectID
		return !found
	})
	return found
}

func (s *MemoryStore) subjectNameTaken(name, excludeID string) bool {
	taken := false
	s.subjects.each(func(sub models.Subject) bool {
		taken = sub.ID != excludeID && strings.EqualFold(sub.Name, name)
		return !taken
	})
	return taken
}

// MemoryStudentRepository stores students in a MemoryStore.
type MemoryStudentRepository struct {
	store *MemoryStore
}

// NewMemoryStudentRepository creates a repository backed by store.
func NewMemoryStudentRepository(store *MemoryStore) *MemoryStudentRepository {
	return &MemoryStudentRepository{store: store}
}

// List returns all students in insertion order.
func (r *MemoryStudentRepository) List(ctx context.Context) ([]models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	students := make([]models.Student, 0, len(r.store.students.order))
	r.store.students.each(func(st models.Student) bool {
		students = append(students, st)
		return true
	})
	return students, nil
}

// FindByID returns a student by id.
func (r *MemoryStudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	student, ok := r.store.students.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

// Create persists a new student.
func (r *MemoryStudentRepository) Create(ctx context.Context, student *models.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if _, exists := r.store.students.get(student.ID); exists {
		return fmt.Errorf("create student: %w", ErrDuplicate)
	}
	now := r.store.now()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	r.store.students.put(student.ID, *student)
	return nil
}

// Update renames a student.
func (r *MemoryStudentRepository) Update(ctx context.Context, student *models.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.students.get(student.ID)
	if !ok {
		return sql.ErrNoRows
	}
	current.Name = student.Name
	current.UpdatedAt = r.store.now()
	r.store.students.put(current.ID, current)
	*student = current
	return nil
}

// Delete removes a student without grades.
func (r *MemoryStudentRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students.get(id); !ok {
		return sql.ErrNoRows
	}
	if r.store.studentHasGrades(id) {
		return fmt.Errorf("delete student: %w", ErrHasDependents)
	}
	r.store.students.remove(id)
	return nil
}

// MemorySubjectRepository stores subjects in a MemoryStore.
type MemorySubjectRepository struct {
	store *MemoryStore
}

// NewMemorySubjectRepository creates a repository backed by store.
func NewMemorySubjectRepository(store *MemoryStore) *MemorySubjectRepository {
	return &MemorySubjectRepository{store: store}
}

// List returns the subject catalog in insertion order.
func (r *MemorySubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	subjects := make([]models.Subject, 0, len(r.store.subjects.order))
	r.store.subjects.each(func(sub models.Subject) bool {
		subjects = append(subjects, sub)
		return true
	})
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *MemorySubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	subject, ok := r.store.subjects.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

// ExistsByName checks case-insensitive uniqueness of subject names.
func (r *MemorySubjectRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.subjectNameTaken(name, excludeID), nil
}

// Create persists a new subject.
func (r *MemorySubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if _, exists := r.store.subjects.get(subject.ID); exists || r.store.subjectNameTaken(subject.Name, "") {
		return fmt.Errorf("create subject: %w", ErrDuplicate)
	}
	now := r.store.now()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	r.store.subjects.put(subject.ID, *subject)
	return nil
}

// Update modifies a subject's name and weight.
func (r *MemorySubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.subjects.get(subject.ID)
	if !ok {
		return sql.ErrNoRows
	}
	if r.store.subjectNameTaken(subject.Name, subject.ID) {
		return fmt.Errorf("update subject: %w", ErrDuplicate)
	}
	current.Name = subject.Name
	current.Weight = subject.Weight
	current.UpdatedAt = r.store.now()
	r.store.subjects.put(current.ID, current)
	*subject = current
	return nil
}

// Delete removes a subject and its topics. Subjects with grades are kept.
func (r *MemorySubjectRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.subjects.get(id); !ok {
		return sql.ErrNoRows
	}
	if r.store.subjectHasGrades(id) {
		return fmt.Errorf("delete subject: %w", ErrHasDependents)
	}

	var topicIDs []string
	r.store.topics.each(func(tp models.Topic) bool {
		if tp.SubjectID == id {
			topicIDs = append(topicIDs, tp.ID)
		}
		return true
	})
	for _, topicID := range topicIDs {
		r.store.topics.remove(topicID)
	}
	r.store.subjects.remove(id)
	return nil
}

// MemoryGradeRepository stores grades in a MemoryStore.
type MemoryGradeRepository struct {
	store *MemoryStore
}

// NewMemoryGradeRepository creates a repository backed by store.
func NewMemoryGradeRepository(store *MemoryStore) *MemoryGradeRepository {
	return &MemoryGradeRepository{store: store}
}

// List returns grades matching the filter in insertion order.
func (r *MemoryGradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var grades []models.Grade
	r.store.grades.each(func(g models.Grade) bool {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			return true
		}
		if filter.SubjectID != "" && g.SubjectID != filter.SubjectID {
			return true
		}
		grades = append(grades, g)
		return true
	})
	return grades, nil
}

// FindByID returns a grade by id.
func (r *MemoryGradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	grade, ok := r.store.grades.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &grade, nil
}

// Create persists a new grade. Unknown student or subject ids yield ErrMissingReference.
func (r *MemoryGradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students.get(grade.StudentID); !ok {
		return fmt.Errorf("create grade: student %s: %w", grade.StudentID, ErrMissingReference)
	}
	if _, ok := r.store.subjects.get(grade.SubjectID); !ok {
		return fmt.Errorf("create grade: subject %s: %w", grade.SubjectID, ErrMissingReference)
	}
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if _, exists := r.store.grades.get(grade.ID); exists {
		return fmt.Errorf("create grade: %w", ErrDuplicate)
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = r.store.now()
	}
	if grade.Type == "" {
		grade.Type = models.DefaultGradeType
	}
	r.store.grades.put(grade.ID, *grade)
	return nil
}

// Delete removes a single grade.
func (r *MemoryGradeRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !r.store.grades.remove(id) {
		return sql.ErrNoRows
	}
	return nil
}

// ResetStudent removes every grade of a student and reopens all topics under one lock.
func (r *MemoryGradeRepository) ResetStudent(ctx context.Context, studentID string) (*models.ResetResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var ids []string
	r.store.grades.each(func(g models.Grade) bool {
		if g.StudentID == studentID {
			ids = append(ids, g.ID)
		}
		return true
	})
	for _, id := range ids {
		r.store.grades.remove(id)
	}

	var reset int64
	for id, topic := range r.store.topics.rows {
		if topic.IsCompleted {
			topic.IsCompleted = false
			r.store.topics.rows[id] = topic
			reset++
		}
	}
	return &models.ResetResult{StudentID: studentID, GradesDeleted: int64(len(ids)), TopicsReset: reset}, nil
}

// MemoryTopicRepository stores topics in a MemoryStore.
type MemoryTopicRepository struct {
	store *MemoryStore
}

// NewMemoryTopicRepository creates a repository backed by store.
func NewMemoryTopicRepository(store *MemoryStore) *MemoryTopicRepository {
	return &MemoryTopicRepository{store: store}
}

// ListBySubject returns a subject's topics in insertion order.
func (r *MemoryTopicRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var topics []models.Topic
	r.store.topics.each(func(tp models.Topic) bool {
		if tp.SubjectID == subjectID {
			topics = append(topics, tp)
		}
		return true
	})
	return topics, nil
}

// FindByID returns a topic by id.
func (r *MemoryTopicRepository) FindByID(ctx context.Context, id string) (*models.Topic, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	topic, ok := r.store.topics.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &topic, nil
}

// Create persists a new topic.
func (r *MemoryTopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.subjects.get(topic.SubjectID); !ok {
		return fmt.Errorf("create topic: subject %s: %w", topic.SubjectID, ErrMissingReference)
	}
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = r.store.now()
	}
	r.store.topics.put(topic.ID, *topic)
	return nil
}

// Toggle flips the completion flag and returns the updated topic.
func (r *MemoryTopicRepository) Toggle(ctx context.Context, id string) (*models.Topic, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	topic, ok := r.store.topics.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	topic.IsCompleted = !topic.IsCompleted
	r.store.topics.put(id, topic)
	return &topic, nil
}
