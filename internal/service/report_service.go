package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/notenpfad-api/internal/dto"
	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
	"github.com/noah-isme/notenpfad-api/pkg/export"
)

type averagesProvider interface {
	Averages(ctx context.Context, actor *models.Actor, studentID string) (*models.StudentAverages, bool, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ReportConfig tunes report rendering.
type ReportConfig struct {
	DisplayPrecision int
	PassThreshold    float64
}

// ReportService renders report cards from a student's averages.
type ReportService struct {
	averages  averagesProvider
	students  studentFinder
	exporters map[models.ReportFormat]export.Exporter
	cfg       ReportConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService with the CSV and PDF exporters.
func NewReportService(averages averagesProvider, students studentFinder, cfg ReportConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		averages: averages,
		students: students,
		exporters: map[models.ReportFormat]export.Exporter{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
		},
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// StudentReport renders the report card of one student in the requested format.
func (s *ReportService) StudentReport(ctx context.Context, actor *models.Actor, studentID string, format models.ReportFormat) (*models.ReportFile, error) {
	if format == "" {
		format = models.ReportFormatCSV
	}
	exporter, ok := s.exporters[models.ReportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Validation(fmt.Sprintf("unsupported report format %q", format))
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.CanAccessStudent(studentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only export their own report")
	}

	avg, _, err := s.averages.Averages(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	data, err := exporter.Render(s.dataset(student, avg))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.logger.Info("report rendered", zap.String("student_id", studentID), zap.String("format", exporter.Extension()), zap.Int("bytes", len(data)))
	return &models.ReportFile{
		Filename:    fmt.Sprintf("zeugnis-%s-%s.%s", slug(student.Name), s.now().Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}

func (s *ReportService) dataset(student *models.Student, avg *models.StudentAverages) export.Dataset {
	rows := make([]map[string]string, 0, len(avg.Subjects))
	for _, sub := range avg.Subjects {
		rows = append(rows, map[string]string{
			"Subject": sub.SubjectName,
			"Weight":  s.format(sub.Weight),
			"Grades":  strconv.Itoa(sub.GradeCount),
			"Average": s.format(sub.Average),
			"Trend":   string(sub.Trend.Direction),
		})
	}

	passed := "no"
	if avg.Passed {
		passed = "yes"
	}
	return export.Dataset{
		Title:    "Zeugnis " + student.Name,
		Subtitle: "Stand " + s.now().Format(models.DateLayout),
		Headers:  []string{"Subject", "Weight", "Grades", "Average", "Trend"},
		Numeric:  []string{"Weight", "Grades", "Average"},
		Rows:     rows,
		Summary: []export.SummaryLine{
			{Label: "Overall", Value: s.format(avg.Overall)},
			{Label: "Pass threshold", Value: s.format(s.cfg.PassThreshold)},
			{Label: "Passed", Value: passed},
			{Label: "Trend", Value: string(avg.Trend.Direction)},
		},
	}
}

func (s *ReportService) format(v float64) string {
	return strconv.FormatFloat(dto.Round(v, s.cfg.DisplayPrecision), 'f', -1, 64)
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "student"
	}
	return b.String()
}
