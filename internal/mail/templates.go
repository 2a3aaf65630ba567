package mail

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed templates
var templatesFS embed.FS

const (
	TemplateActivation         = "activation"
	TemplateEmployeeInvitation = "employee_invitation"
	TemplatePasswordReset      = "password_reset"
)

// loadTemplates parses every page under templates/pages on top of the base
// layout. Each page gets its own template set so their "content" blocks
// don't overwrite each other.
func loadTemplates() (map[string]*template.Template, error) {
	baseContent, err := fs.ReadFile(templatesFS, "templates/layouts/base.html")
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(templatesFS, "templates/pages")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		pageContent, err := fs.ReadFile(templatesFS, "templates/pages/"+entry.Name())
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(entry.Name(), ".html")
		tmpl := template.New(name).Option("missingkey=error")
		if _, err := tmpl.Parse(string(baseContent)); err != nil {
			return nil, err
		}
		if _, err := tmpl.Parse(string(pageContent)); err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}

	return pages, nil
}
