package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl templates/components/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle so callers can copy and
// override individual templates with WithTemplatesDir.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
