package service

import (
	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

// AverageEngineConfig tunes trend detection and the pass mark.
type AverageEngineConfig struct {
	Scale          models.GradeScale
	TrendThreshold float64
	PassThreshold  float64
}

// AverageEngine derives averages and trends from a student's grades. It holds
// no state besides its configuration and performs no I/O.
type AverageEngine struct {
	cfg AverageEngineConfig
}

// NewAverageEngine constructs an engine.
func NewAverageEngine(cfg AverageEngineConfig) *AverageEngine {
	return &AverageEngine{cfg: cfg}
}

// Scale returns the configured grade scale.
func (e *AverageEngine) Scale() models.GradeScale {
	return e.cfg.Scale
}

// PassThreshold returns the overall average required to pass.
func (e *AverageEngine) PassThreshold() float64 {
	return e.cfg.PassThreshold
}

type orderedGrade struct {
	grade models.Grade
	seq   int
}

type subjectBucket struct {
	subject models.Subject
	grades  []orderedGrade
	sum     float64
}

func (b *subjectBucket) average() float64 {
	return b.sum / float64(len(b.grades))
}

// bucketize groups grades by subject in catalog order. Grades must be passed in
// insertion order; grades of unknown subjects are ignored.
func bucketize(grades []models.Grade, subjects []models.Subject) ([]*subjectBucket, map[string]*subjectBucket, int) {
	buckets := make([]*subjectBucket, 0, len(subjects))
	byID := make(map[string]*subjectBucket, len(subjects))
	for _, subject := range subjects {
		b := &subjectBucket{subject: subject}
		buckets = append(buckets, b)
		byID[subject.ID] = b
	}

	counted := 0
	for i, g := range grades {
		b, ok := byID[g.SubjectID]
		if !ok {
			continue
		}
		b.grades = append(b.grades, orderedGrade{grade: g, seq: i})
		b.sum += g.Value
		counted++
	}
	return buckets, byID, counted
}

// Compute returns per-subject averages, the weighted overall average and the
// trends for one student. A student without grades yields ErrNoData.
func (e *AverageEngine) Compute(studentID string, grades []models.Grade, subjects []models.Subject) (*models.StudentAverages, error) {
	buckets, _, counted := bucketize(grades, subjects)
	if counted == 0 {
		return nil, appErrors.ErrNoData
	}

	result := &models.StudentAverages{StudentID: studentID, GradeCount: counted}
	var weighted, weights float64
	var latest *orderedGrade
	var latestBucket *subjectBucket

	for _, b := range buckets {
		if len(b.grades) == 0 {
			continue
		}
		avg := b.average()
		weighted += avg * b.subject.Weight
		weights += b.subject.Weight

		result.Subjects = append(result.Subjects, models.SubjectAverage{
			SubjectID:   b.subject.ID,
			SubjectName: b.subject.Name,
			Weight:      b.subject.Weight,
			Average:     avg,
			GradeCount:  len(b.grades),
			Trend:       e.trend(b),
		})

		candidate := newest(b.grades)
		if latest == nil || isAfter(candidate, *latest) {
			c := candidate
			latest = &c
			latestBucket = b
		}
	}

	result.Overall = weighted / weights
	result.Passed = result.Overall >= e.cfg.PassThreshold
	result.Trend = e.trend(latestBucket)
	return result, nil
}

// trend compares the newest grade of the bucket with the mean of its other grades.
func (e *AverageEngine) trend(b *subjectBucket) models.TrendSignal {
	last := newest(b.grades)
	latest := last.grade
	signal := models.TrendSignal{Direction: models.TrendInsufficientData, LatestGrade: &latest}
	if len(b.grades) < 2 {
		return signal
	}

	prior := (b.sum - latest.Value) / float64(len(b.grades)-1)
	delta := latest.Value - prior
	signal.PriorAverage = &prior
	signal.Delta = &delta

	switch {
	case delta > e.cfg.TrendThreshold:
		signal.Direction = models.TrendImproving
	case delta < -e.cfg.TrendThreshold:
		signal.Direction = models.TrendDeclining
	default:
		signal.Direction = models.TrendStable
	}
	return signal
}

// newest picks the grade with the latest date; later insertion wins ties.
func newest(grades []orderedGrade) orderedGrade {
	latest := grades[0]
	for _, g := range grades[1:] {
		if isAfter(g, latest) {
			latest = g
		}
	}
	return latest
}

func isAfter(a, b orderedGrade) bool {
	if !a.grade.Date.Equal(b.grade.Date.Time) {
		return a.grade.Date.After(b.grade.Date.Time)
	}
	return a.seq > b.seq
}

// RequiredGrade solves the overall average formula for the next grade in
// subjectID that lifts the overall average to target.
func (e *AverageEngine) RequiredGrade(studentID string, grades []models.Grade, subjects []models.Subject, subjectID string, target float64) (*models.Prediction, error) {
	_, byID, counted := bucketize(grades, subjects)
	focus, ok := byID[subjectID]
	if !ok {
		return nil, appErrors.Validation("unknown subject_id")
	}

	var otherWeighted, otherWeights float64
	for id, b := range byID {
		if id == subjectID || len(b.grades) == 0 {
			continue
		}
		otherWeighted += b.average() * b.subject.Weight
		otherWeights += b.subject.Weight
	}

	w := focus.subject.Weight
	n := float64(len(focus.grades))
	neededSubjectAvg := (target*(otherWeights+w) - otherWeighted) / w
	required := neededSubjectAvg*(n+1) - focus.sum

	prediction := &models.Prediction{
		StudentID:     studentID,
		SubjectID:     subjectID,
		Target:        target,
		RequiredGrade: required,
	}

	if counted > 0 {
		current, err := e.Compute(studentID, grades, subjects)
		if err != nil {
			return nil, err
		}
		overall := current.Overall
		prediction.CurrentOverall = &overall
		prediction.AlreadyReached = overall >= target
	}

	switch {
	case required < e.cfg.Scale.Min:
		prediction.RequiredGrade = e.cfg.Scale.Min
		prediction.Achievable = true
	case required > e.cfg.Scale.Max:
		prediction.Achievable = false
	default:
		prediction.Achievable = true
	}
	return prediction, nil
}
