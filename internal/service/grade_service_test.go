package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

func newTestGradeService(t *testing.T, cacheRepo CacheRepository) (*GradeService, *memoryFixture) {
	t.Helper()
	f := newMemoryFixture(t)
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, 0, nil, true)
	}
	svc := NewGradeService(f.grades, f.students, f.subjects, testEngine(0), cache, NewMetricsService(), nil, nil)
	return svc, f
}

func gradeRequest(studentID, subjectID string, value float64, day string) models.CreateGradeRequest {
	d, err := models.ParseDate(day)
	if err != nil {
		panic(err)
	}
	return models.CreateGradeRequest{StudentID: studentID, SubjectID: subjectID, Value: &value, Date: &d}
}

func TestGradeServiceCreateAndList(t *testing.T) {
	svc, _ := newTestGradeService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, studentActor(testStudentID), gradeRequest("", mathID, 5, "2024-03-01"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testStudentID, created.StudentID)
	assert.Equal(t, models.DefaultGradeType, created.Type)

	listing, err := svc.List(ctx, studentActor(testStudentID), models.GradeFilter{})
	require.NoError(t, err)
	require.Len(t, listing.Grades, 1)
	assert.Equal(t, created.ID, listing.Grades[0].ID)
	assert.Equal(t, 5.0, listing.Grades[0].Value)
	require.Len(t, listing.Averages, 1)
	require.NotNil(t, listing.Averages[0].Averages)
	assert.InDelta(t, 5.0, listing.Averages[0].Averages.Overall, 1e-9)
}

func TestGradeServiceCreateRejectsOutOfScale(t *testing.T) {
	svc, f := newTestGradeService(t, nil)

	for _, v := range []float64{0.5, 6.01, 9} {
		_, err := svc.Create(context.Background(), adminActor(), gradeRequest(testStudentID, mathID, v, "2024-03-01"))
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code, "value %v", v)
	}

	grades, err := f.grades.List(context.Background(), models.GradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestGradeServiceCreateAcceptsScaleBounds(t *testing.T) {
	svc, _ := newTestGradeService(t, nil)
	for _, v := range []float64{1, 6} {
		_, err := svc.Create(context.Background(), adminActor(), gradeRequest(testStudentID, mathID, v, "2024-03-01"))
		assert.NoError(t, err)
	}
}

func TestGradeServiceCreateValidation(t *testing.T) {
	svc, _ := newTestGradeService(t, nil)
	ctx := context.Background()

	t.Run("missing value", func(t *testing.T) {
		req := gradeRequest(testStudentID, mathID, 4, "2024-03-01")
		req.Value = nil
		_, err := svc.Create(ctx, adminActor(), req)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := svc.Create(ctx, adminActor(), gradeRequest(testStudentID, gerID, 4, "2024-03-01"))
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("admin without student", func(t *testing.T) {
		_, err := svc.Create(ctx, adminActor(), gradeRequest("", mathID, 4, "2024-03-01"))
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("student for someone else", func(t *testing.T) {
		_, err := svc.Create(ctx, studentActor(testStudentID), gradeRequest(otherStudentID, mathID, 4, "2024-03-01"))
		assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Create(ctx, nil, gradeRequest(testStudentID, mathID, 4, "2024-03-01"))
		assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	})
}

func TestGradeServiceListScoping(t *testing.T) {
	svc, f := newTestGradeService(t, nil)
	ctx := context.Background()
	f.addGrade(t, testStudentID, mathID, 5, "2024-01-01")
	f.addGrade(t, otherStudentID, artID, 3, "2024-01-02")

	_, err := svc.List(ctx, studentActor(testStudentID), models.GradeFilter{StudentID: otherStudentID})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	listing, err := svc.List(ctx, adminActor(), models.GradeFilter{StudentID: otherStudentID})
	require.NoError(t, err)
	require.Len(t, listing.Grades, 1)
	assert.Equal(t, otherStudentID, listing.Grades[0].StudentID)

	all, err := svc.List(ctx, adminActor(), models.GradeFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Grades, 2)
	assert.Len(t, all.Averages, 2)
}

func TestGradeServiceListSubjectFilterKeepsFullAverages(t *testing.T) {
	svc, f := newTestGradeService(t, nil)
	f.addGrade(t, testStudentID, mathID, 5, "2024-01-01")
	f.addGrade(t, testStudentID, artID, 3, "2024-01-02")

	listing, err := svc.List(context.Background(), studentActor(testStudentID), models.GradeFilter{SubjectID: artID})
	require.NoError(t, err)
	require.Len(t, listing.Grades, 1)
	require.NotNil(t, listing.Averages[0].Averages)
	assert.InDelta(t, 4.0, listing.Averages[0].Averages.Overall, 1e-9)
}

func TestGradeServiceListNoData(t *testing.T) {
	svc, _ := newTestGradeService(t, nil)

	listing, err := svc.List(context.Background(), studentActor(testStudentID), models.GradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, listing.Grades)
	require.Len(t, listing.Averages, 1)
	assert.Nil(t, listing.Averages[0].Averages)
}

func TestGradeServiceAverages(t *testing.T) {
	svc, f := newTestGradeService(t, nil)
	ctx := context.Background()

	_, _, err := svc.Averages(ctx, studentActor(testStudentID), "")
	assert.True(t, errors.Is(err, appErrors.ErrNoData))

	f.addGrade(t, testStudentID, mathID, 4, "2024-01-01")
	f.addGrade(t, testStudentID, mathID, 5, "2024-02-01")
	f.addGrade(t, testStudentID, artID, 3, "2024-03-01")

	avg, hit, err := svc.Averages(ctx, studentActor(testStudentID), "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 3.75, avg.Overall, 1e-9)

	_, _, err = svc.Averages(ctx, adminActor(), "8d1e2a6b-0000-4000-8000-000000000000")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, _, err = svc.Averages(ctx, studentActor(testStudentID), otherStudentID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestGradeServiceAveragesCache(t *testing.T) {
	cacheRepo := newFakeCacheRepo()
	svc, _ := newTestGradeService(t, cacheRepo)
	ctx := context.Background()
	actor := studentActor(testStudentID)

	_, err := svc.Create(ctx, actor, gradeRequest("", mathID, 4, "2024-01-01"))
	require.NoError(t, err)

	first, hit, err := svc.Averages(ctx, actor, "")
	require.NoError(t, err)
	assert.False(t, hit)
	key, err := svc.cache.averagesKey(ctx, testStudentID)
	require.NoError(t, err)
	assert.True(t, cacheRepo.has(key))

	second, hit, err := svc.Averages(ctx, actor, "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.InDelta(t, first.Overall, second.Overall, 1e-9)

	_, err = svc.Create(ctx, actor, gradeRequest("", mathID, 6, "2024-02-01"))
	require.NoError(t, err)
	retired, err := svc.cache.averagesKey(ctx, testStudentID)
	require.NoError(t, err)
	assert.NotEqual(t, key, retired, "new grade moves averages to a fresh key")

	third, hit, err := svc.Averages(ctx, actor, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 5.0, third.Overall, 1e-9)
}

func TestGradeServiceGetAndDelete(t *testing.T) {
	svc, f := newTestGradeService(t, nil)
	ctx := context.Background()
	mine := f.addGrade(t, testStudentID, mathID, 5, "2024-01-01")
	theirs := f.addGrade(t, otherStudentID, mathID, 2, "2024-01-01")

	got, err := svc.Get(ctx, studentActor(testStudentID), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = svc.Get(ctx, studentActor(testStudentID), theirs.ID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	err = svc.Delete(ctx, studentActor(testStudentID), theirs.ID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Delete(ctx, adminActor(), theirs.ID))
	_, err = svc.Get(ctx, adminActor(), theirs.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, studentActor(testStudentID), mine.ID))
}

func TestGradeServicePredict(t *testing.T) {
	svc, f := newTestGradeService(t, nil)
	ctx := context.Background()
	f.addGrade(t, testStudentID, mathID, 4, "2024-01-01")
	f.addGrade(t, testStudentID, artID, 4, "2024-01-02")

	target := 4.5
	prediction, err := svc.Predict(ctx, studentActor(testStudentID), "", models.PredictionRequest{SubjectID: mathID, Target: &target})
	require.NoError(t, err)
	// math needs an average of 5 over two grades: 4 + x = 10
	assert.InDelta(t, 6.0, prediction.RequiredGrade, 1e-9)
	assert.True(t, prediction.Achievable)
	require.NotNil(t, prediction.CurrentOverall)
	assert.InDelta(t, 4.0, *prediction.CurrentOverall, 1e-9)

	defaulted, err := svc.Predict(ctx, studentActor(testStudentID), "", models.PredictionRequest{SubjectID: mathID})
	require.NoError(t, err)
	assert.Equal(t, 4.75, defaulted.Target)

	tooHigh := 7.0
	_, err = svc.Predict(ctx, studentActor(testStudentID), "", models.PredictionRequest{SubjectID: mathID, Target: &tooHigh})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestGradeServiceAveragesNotStaleAfterConcurrentCreate(t *testing.T) {
	f := newMemoryFixture(t)
	blocking := newBlockingGradeRepo(f.grades)
	cache := NewCacheService(newFakeCacheRepo(), nil, 0, nil, true)
	svc := NewGradeService(blocking, f.students, f.subjects, testEngine(0), cache, NewMetricsService(), nil, nil)
	ctx := context.Background()
	f.addGrade(t, testStudentID, mathID, 4, "2024-01-01")

	type outcome struct {
		avg *models.StudentAverages
		err error
	}
	slow := make(chan outcome, 1)
	go func() {
		avg, _, err := svc.Averages(ctx, adminActor(), testStudentID)
		slow <- outcome{avg: avg, err: err}
	}()

	<-blocking.loaded
	_, err := svc.Create(ctx, adminActor(), gradeRequest(testStudentID, mathID, 6, "2024-02-01"))
	require.NoError(t, err)
	close(blocking.release)

	early := <-slow
	require.NoError(t, early.err)
	assert.InDelta(t, 4.0, early.avg.Overall, 1e-9)

	fresh, hit, err := svc.Averages(ctx, adminActor(), testStudentID)
	require.NoError(t, err)
	assert.False(t, hit, "averages computed before the write must not be served")
	assert.InDelta(t, 5.0, fresh.Overall, 1e-9)
	assert.Equal(t, 2, fresh.GradeCount)

	again, hit, err := svc.Averages(ctx, adminActor(), testStudentID)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.InDelta(t, 5.0, again.Overall, 1e-9)
}
