package models

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportFile is a rendered report card ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
