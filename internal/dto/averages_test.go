package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 4.67, Round(14.0/3.0, 2))
	assert.Equal(t, 4.5, Round(4.45, 1))
	assert.Equal(t, 5.0, Round(4.995, 2))
	assert.Equal(t, 4.123456, Round(4.123456, -1))
}

func TestNewAveragesResponseNoData(t *testing.T) {
	resp := NewAveragesResponse("s1", nil, 2, 4.75)
	assert.Equal(t, StatusNoData, resp.Status)
	assert.Nil(t, resp.Overall)
	assert.Nil(t, resp.Passed)
	assert.NotNil(t, resp.Subjects)
}

func TestNewAveragesResponseRoundsOnlyForDisplay(t *testing.T) {
	prior := 4.0
	delta := 2.0 / 3.0
	latest := models.Grade{ID: "g3", SubjectID: "sub1", Value: 4.6666666}
	avg := &models.StudentAverages{
		StudentID:  "s1",
		Overall:    14.0 / 3.0,
		GradeCount: 3,
		Passed:     false,
		Subjects: []models.SubjectAverage{{
			SubjectID: "sub1", SubjectName: "Mathematik", Weight: 1, Average: 14.0 / 3.0, GradeCount: 3,
			Trend: models.TrendSignal{Direction: models.TrendImproving, LatestGrade: &latest, PriorAverage: &prior, Delta: &delta},
		}},
		Trend: models.TrendSignal{Direction: models.TrendImproving, LatestGrade: &latest, PriorAverage: &prior, Delta: &delta},
	}

	resp := NewAveragesResponse("s1", avg, 2, 4.75)
	require.NotNil(t, resp.Overall)
	assert.Equal(t, 4.67, *resp.Overall)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, 0.67, *resp.Trend.Delta)
	assert.Equal(t, "g3", resp.Trend.LatestGradeID)
	assert.Equal(t, 4.67, resp.Subjects[0].Average)
	assert.Equal(t, 14.0/3.0, avg.Overall, "engine values stay unrounded")
}

func TestNewGradeListResponse(t *testing.T) {
	listing := &models.GradeListing{Averages: []models.StudentAveragesResult{{StudentID: "s1"}}}
	resp := NewGradeListResponse(listing, 2, 4.75)
	assert.NotNil(t, resp.Grades)
	require.Len(t, resp.Averages, 1)
	assert.Equal(t, StatusNoData, resp.Averages[0].Status)
}
