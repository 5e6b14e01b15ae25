package msgrouter

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

const timeLayout = "Jan. 2, 2006, 15:04 MST"

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"formatTime": formatTime,
}).ParseFS(templatesFS, "templates/*.html"))

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
