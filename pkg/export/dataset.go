package export

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     []map[string]string
	// Numeric lists headers whose cells are right aligned in rendered documents.
	Numeric []string
	// Summary lines are appended below the table as label/value pairs.
	Summary []SummaryLine
}

// SummaryLine is a labelled value printed after the table body.
type SummaryLine struct {
	Label string
	Value string
}

// Exporter renders a dataset into a downloadable document.
type Exporter interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

func (d Dataset) isNumeric(header string) bool {
	for _, h := range d.Numeric {
		if h == header {
			return true
		}
	}
	return false
}
