package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/internal/repository"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

const otherStudentID = "9a7c2f10-55e1-4c3b-8f7d-2b6e1d0c4a11"

type memoryFixture struct {
	store    *repository.MemoryStore
	students *repository.MemoryStudentRepository
	subjects *repository.MemorySubjectRepository
	grades   *repository.MemoryGradeRepository
	topics   *repository.MemoryTopicRepository
}

// newMemoryFixture seeds two students and two equally weighted subjects.
func newMemoryFixture(t *testing.T) *memoryFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	f := &memoryFixture{
		store:    store,
		students: repository.NewMemoryStudentRepository(store),
		subjects: repository.NewMemorySubjectRepository(store),
		grades:   repository.NewMemoryGradeRepository(store),
		topics:   repository.NewMemoryTopicRepository(store),
	}
	ctx := context.Background()
	require.NoError(t, f.students.Create(ctx, &models.Student{ID: testStudentID, Name: "Lena"}))
	require.NoError(t, f.students.Create(ctx, &models.Student{ID: otherStudentID, Name: "Jonas"}))
	require.NoError(t, f.subjects.Create(ctx, &models.Subject{ID: mathID, Name: "Mathematik", Weight: 1}))
	require.NoError(t, f.subjects.Create(ctx, &models.Subject{ID: artID, Name: "Bildnerisches Gestalten", Weight: 1}))
	return f
}

func (f *memoryFixture) addGrade(t *testing.T, studentID, subjectID string, value float64, day string) models.Grade {
	t.Helper()
	g := grade(subjectID, value, day)
	g.StudentID = studentID
	g.ID = ""
	require.NoError(t, f.grades.Create(context.Background(), &g))
	return g
}

// fakeCacheRepo is an in-memory CacheRepository that round-trips values through JSON.
type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string][]byte{}}
}

func (r *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = raw
	r.sets++
	return nil
}

func (r *fakeCacheRepo) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		delete(r.entries, key)
	}
	return nil
}

func (r *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}

func (r *fakeCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	if raw, ok := r.entries[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	raw, err := json.Marshal(n)
	if err != nil {
		return 0, err
	}
	r.entries[key] = raw
	return n, nil
}

func (r *fakeCacheRepo) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// blockingGradeRepo holds the first List call after it has read the grades
// until release is closed.
type blockingGradeRepo struct {
	*repository.MemoryGradeRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newBlockingGradeRepo(inner *repository.MemoryGradeRepository) *blockingGradeRepo {
	return &blockingGradeRepo{MemoryGradeRepository: inner, loaded: make(chan struct{}), release: make(chan struct{})}
}

func (r *blockingGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	grades, err := r.MemoryGradeRepository.List(ctx, filter)
	r.once.Do(func() {
		close(r.loaded)
		<-r.release
	})
	return grades, err
}

func adminActor() *models.Actor {
	return &models.Actor{Role: models.RoleAdmin}
}

func studentActor(id string) *models.Actor {
	return &models.Actor{Role: models.RoleStudent, StudentID: id}
}
