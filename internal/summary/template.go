// Package summary turns an assembled conversion context into personalized signup copy,
// through an LLM when one is reachable and through static per-product templates otherwise.
package summary

import (
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate fills {{.key}} placeholders from vars. A placeholder without a value is an error.
func RenderTemplate(tmpl string, vars map[string]string) (string, error) {
	t, err := template.New("summary").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return sb.String(), nil
}
