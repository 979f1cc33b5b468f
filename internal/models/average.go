package models

// Trend classifies the direction of the latest grade.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendStable           Trend = "stable"
	TrendDeclining        Trend = "declining"
	TrendInsufficientData Trend = "insufficient_data"
)

// TrendSignal describes how the latest grade compares to the prior average.
type TrendSignal struct {
	Direction    Trend
	LatestGrade  *Grade
	PriorAverage *float64
	Delta        *float64
}

// SubjectAverage is the unrounded mean of one subject's grades.
type SubjectAverage struct {
	SubjectID   string
	SubjectName string
	Weight      float64
	Average     float64
	GradeCount  int
	Trend       TrendSignal
}

// StudentAverages aggregates every figure derived from one student's grades.
type StudentAverages struct {
	StudentID  string
	Subjects   []SubjectAverage
	Overall    float64
	GradeCount int
	Trend      TrendSignal
	Passed     bool
}

// PredictionRequest asks which grade is needed to reach a target average.
type PredictionRequest struct {
	SubjectID string   `json:"subject_id" validate:"required,uuid"`
	Target    *float64 `json:"target" validate:"omitempty,gt=0"`
}

// Prediction is the grade required in one subject to reach the target overall average.
type Prediction struct {
	StudentID      string
	SubjectID      string
	Target         float64
	CurrentOverall *float64
	RequiredGrade  float64
	Achievable     bool
	AlreadyReached bool
}

// StudentAveragesResult pairs a student with their averages. Averages is nil
// when the student has no grades yet.
type StudentAveragesResult struct {
	StudentID string
	Averages  *StudentAverages
}

// GradeListing is a grade listing together with the averages of every listed student.
type GradeListing struct {
	Grades   []Grade
	Averages []StudentAveragesResult
}
