package dto

import (
	"math"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

// Averages status markers.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// TrendResponse describes the newest grade against the prior subject average.
type TrendResponse struct {
	Direction     models.Trend `json:"direction"`
	LatestGradeID string       `json:"latest_grade_id,omitempty"`
	LatestValue   *float64     `json:"latest_value,omitempty"`
	LatestDate    string       `json:"latest_date,omitempty"`
	SubjectID     string       `json:"subject_id,omitempty"`
	PriorAverage  *float64     `json:"prior_average,omitempty"`
	Delta         *float64     `json:"delta,omitempty"`
}

// SubjectAverageResponse is one subject's rounded average.
type SubjectAverageResponse struct {
	SubjectID   string        `json:"subject_id"`
	SubjectName string        `json:"subject_name"`
	Weight      float64       `json:"weight"`
	Average     float64       `json:"average"`
	GradeCount  int           `json:"grade_count"`
	Trend       TrendResponse `json:"trend"`
}

// AveragesResponse is the presentation of a student's averages. Overall is
// null and Status is "no_data" when the student has no grades.
type AveragesResponse struct {
	StudentID     string                   `json:"student_id"`
	Status        string                   `json:"status"`
	Overall       *float64                 `json:"overall"`
	Passed        *bool                    `json:"passed"`
	PassThreshold float64                  `json:"pass_threshold"`
	GradeCount    int                      `json:"grade_count"`
	Trend         *TrendResponse           `json:"trend"`
	Subjects      []SubjectAverageResponse `json:"subjects"`
}

// GradeListResponse carries listed grades plus the averages of each student in the listing.
type GradeListResponse struct {
	Grades   []models.Grade     `json:"grades"`
	Averages []AveragesResponse `json:"averages"`
}

// PredictionResponse reports the grade needed to reach a target average.
type PredictionResponse struct {
	StudentID      string   `json:"student_id"`
	SubjectID      string   `json:"subject_id"`
	Target         float64  `json:"target"`
	CurrentOverall *float64 `json:"current_overall"`
	RequiredGrade  float64  `json:"required_grade"`
	Achievable     bool     `json:"achievable"`
	AlreadyReached bool     `json:"already_reached"`
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	pow := math.Pow(10, float64(precision))
	return math.Round(v*pow) / pow
}

func roundPtr(v *float64, precision int) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, precision)
	return &r
}

// NewTrendResponse converts a trend signal, rounding numeric fields.
func NewTrendResponse(signal models.TrendSignal, precision int) TrendResponse {
	resp := TrendResponse{
		Direction:    signal.Direction,
		PriorAverage: roundPtr(signal.PriorAverage, precision),
		Delta:        roundPtr(signal.Delta, precision),
	}
	if g := signal.LatestGrade; g != nil {
		value := g.Value
		resp.LatestGradeID = g.ID
		resp.LatestValue = &value
		resp.LatestDate = g.Date.String()
		resp.SubjectID = g.SubjectID
	}
	return resp
}

// NewAveragesResponse rounds computed averages for display. A nil avg renders the no-data marker.
func NewAveragesResponse(studentID string, avg *models.StudentAverages, precision int, passThreshold float64) AveragesResponse {
	if avg == nil {
		return AveragesResponse{
			StudentID:     studentID,
			Status:        StatusNoData,
			PassThreshold: passThreshold,
			Subjects:      []SubjectAverageResponse{},
		}
	}

	overall := Round(avg.Overall, precision)
	passed := avg.Passed
	trend := NewTrendResponse(avg.Trend, precision)
	resp := AveragesResponse{
		StudentID:     avg.StudentID,
		Status:        StatusOK,
		Overall:       &overall,
		Passed:        &passed,
		PassThreshold: passThreshold,
		GradeCount:    avg.GradeCount,
		Trend:         &trend,
		Subjects:      make([]SubjectAverageResponse, 0, len(avg.Subjects)),
	}
	for _, sub := range avg.Subjects {
		resp.Subjects = append(resp.Subjects, SubjectAverageResponse{
			SubjectID:   sub.SubjectID,
			SubjectName: sub.SubjectName,
			Weight:      sub.Weight,
			Average:     Round(sub.Average, precision),
			GradeCount:  sub.GradeCount,
			Trend:       NewTrendResponse(sub.Trend, precision),
		})
	}
	return resp
}

// NewGradeListResponse converts a grade listing for display.
func NewGradeListResponse(listing *models.GradeListing, precision int, passThreshold float64) GradeListResponse {
	resp := GradeListResponse{Grades: listing.Grades, Averages: make([]AveragesResponse, 0, len(listing.Averages))}
	if resp.Grades == nil {
		resp.Grades = []models.Grade{}
	}
	for _, result := range listing.Averages {
		resp.Averages = append(resp.Averages, NewAveragesResponse(result.StudentID, result.Averages, precision, passThreshold))
	}
	return resp
}

// NewPredictionResponse rounds a prediction for display.
func NewPredictionResponse(p *models.Prediction, precision int) PredictionResponse {
	return PredictionResponse{
		StudentID:      p.StudentID,
		SubjectID:      p.SubjectID,
		Target:         p.Target,
		CurrentOverall: roundPtr(p.CurrentOverall, precision),
		RequiredGrade:  Round(p.RequiredGrade, precision),
		Achievable:     p.Achievable,
		AlreadyReached: p.AlreadyReached,
	}
}
