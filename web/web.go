package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page names accepted by gin's c.HTML once Templates is installed.
const (
	PageIndex   = "index"
	PageResult  = "result"
	PageHistory = "history"
	PageError   = "error"
)

func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.tmpl")
}
