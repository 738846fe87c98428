package utils

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// Linebreaks renders user text as safe HTML: markup outside the UGC policy is
// stripped and newlines become <br>.
func Linebreaks(text string) template.HTML {
	clean := Sanitize(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(clean, "\n", "<br>\n"))
}
