package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/ethereum-optimism/infra/api-acceptor/templates"
	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

// ReportData is the input of the report document template
type ReportData struct {
	Title       string
	RunID       string
	GeneratedAt time.Time
	Environment types.EnvironmentInfo
	Stats       types.ReportStats
	SuccessRate int
	Duration    time.Duration
	Tests       []ReportTest
}

// ReportTest is one detail block of the report document
type ReportTest struct {
	Index       int
	Name        string
	Description string
	Status      types.TestStatus
	StartTime   time.Time
	Duration    time.Duration
	Entries     []template.HTML
}

// HTMLFormatter formats report data as a self-contained HTML document
type HTMLFormatter struct {
	template *template.Template
}

// NewHTMLFormatter creates a new HTML formatter
func NewHTMLFormatter(templateContent string) (*HTMLFormatter, error) {
	tmpl, err := template.New("report").Funcs(templates.GetTemplateFunc()).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return &HTMLFormatter{
		template: tmpl,
	}, nil
}

// Format formats the report data as HTML
func (hf *HTMLFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer
	if err := hf.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute HTML template: %w", err)
	}

	return buf.String(), nil
}
