package reporting

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

const (
	// MaxBodyLength is the number of characters of an HTTP body kept in the report
	MaxBodyLength = 500
	// TruncationMarker is appended to bodies cut at MaxBodyLength
	TruncationMarker = "... [truncated]"
)

// HTTPStatusClass is the tri-state color classification of an HTTP status code
type HTTPStatusClass string

const (
	StatusClassSuccess HTTPStatusClass = "success"
	StatusClassCaution HTTPStatusClass = "caution"
	StatusClassError   HTTPStatusClass = "error"
)

// ClassifyStatus maps 2xx to success, 4xx to caution and anything else to error
func ClassifyStatus(code int) HTTPStatusClass {
	switch {
	case code >= 200 && code < 300:
		return StatusClassSuccess
	case code >= 400 && code < 500:
		return StatusClassCaution
	default:
		return StatusClassError
	}
}

// TruncateBody cuts body to MaxBodyLength characters and appends TruncationMarker.
// Bodies of at most MaxBodyLength characters are returned unmodified.
func TruncateBody(body string) (string, bool) {
	runes := []rune(body)
	if len(runes) <= MaxBodyLength {
		return body, false
	}
	return string(runes[:MaxBodyLength]) + TruncationMarker, true
}

// fragmentData is the input of one fragment template
type fragmentData struct {
	Message     string
	Method      string
	URL         string
	StatusCode  int
	StatusClass HTTPStatusClass
	Body        string
	Truncated   bool
	HeaderName  string
	HeaderValue string
}

func newBodyFragment(data fragmentData, body string) fragmentData {
	data.Body, data.Truncated = TruncateBody(stripansi.Strip(body))
	return data
}

// FragmentRenderer renders single log entries into escaped HTML fragments
type FragmentRenderer struct {
	template *template.Template
}

// NewFragmentRenderer creates a renderer from template content defining one
// template per log kind
func NewFragmentRenderer(templateContent string) (*FragmentRenderer, error) {
	tmpl, err := template.New("fragments").Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment template: %w", err)
	}
	for _, kind := range []types.LogKind{
		types.LogKindPass, types.LogKindFail, types.LogKindInfo, types.LogKindWarning,
		types.LogKindError, types.LogKindRequest, types.LogKindResponse, types.LogKindHeader,
	} {
		if tmpl.Lookup(string(kind)) == nil {
			return nil, fmt.Errorf("fragment template for %q is not defined", kind)
		}
	}
	return &FragmentRenderer{template: tmpl}, nil
}

// Render renders one entry of the given kind
func (r *FragmentRenderer) Render(kind types.LogKind, data fragmentData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.template.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return "", fmt.Errorf("failed to render %s fragment: %w", kind, err)
	}
	return template.HTML(buf.String()), nil
}
