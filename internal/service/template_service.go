// internal/service/template_service.go
package service

import (
	"strings"
)

const (
	DefaultSubjectTemplate = "Quick question regarding {company_name}"
	DefaultBodyTemplate    = "{opening}\n\nI'd love to chat about how we can help {company_name} scale.\n\nBest,\n{signature}"
)

// RenderTemplate replaces {key} placeholders with their values.
func RenderTemplate(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func defaultSubject(companyName string) string {
	return RenderTemplate(DefaultSubjectTemplate, map[string]string{"company_name": companyName})
}

func defaultBody(opening, companyName, signature string) string {
	return RenderTemplate(DefaultBodyTemplate, map[string]string{
		"opening":      opening,
		"company_name": companyName,
		"signature":    signature,
	})
}
