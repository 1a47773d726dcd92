package reporting

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	ReportTemplate    = "report.tmpl.html"
	FragmentsTemplate = "fragments.tmpl.html"
)

//go:embed templates/*.tmpl.html
var templateFS embed.FS

// GetTemplateContent returns the content of the named HTML template
func GetTemplateContent(name string) (string, error) {
	// First try the embedded filesystem
	content, err := templateFS.ReadFile("templates/" + name)
	if err == nil {
		return string(content), nil
	}

	// If the embedded template is missing, try to load it from disk
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("unable to determine current file path")
	}

	templatePath := filepath.Join(filepath.Dir(filename), "templates", name)
	content, err = os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("template not found at %s: %w", templatePath, err)
	}
	return string(content), nil
}
