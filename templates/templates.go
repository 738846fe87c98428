// Package templates holds the embedded HTML page set.
package templates

import (
	"embed"
	"html/template"
	"time"

	"github.com/cppla/bloghub/utils"
)

//go:embed html
var files embed.FS

const dateLayout = "02 Jan 2006"

// Load parses every page and include with the shared helper funcs. mediaURL
// maps a stored image path to its public URL.
func Load(mediaURL func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"linebreaks": utils.Linebreaks,
		"mediaURL":   mediaURL,
		"date": func(t time.Time) string {
			return t.Format(dateLayout)
		},
	}
	return template.New("bloghub").Funcs(funcs).ParseFS(files, "html/*/*.html")
}

// Must is Load for boot paths where a broken template set is fatal.
func Must(mediaURL func(string) string) *template.Template {
	return template.Must(Load(mediaURL))
}
