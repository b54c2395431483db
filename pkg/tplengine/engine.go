package tplengine

import (
	"bytes"
	"fmt"
	"io/fs"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Extension is appended to template names when they are loaded from the filesystem
const Extension = ".tpl"

// TemplateEngine renders named templates from a filesystem with sprig and Python helpers
type TemplateEngine struct {
	fsys  fs.FS
	cache *Cache
	funcs template.FuncMap
}

// NewEngine creates an engine reading templates from fsys. Parsed templates are kept in cache.
func NewEngine(fsys fs.FS, cache *Cache) *TemplateEngine {
	funcs := sprig.TxtFuncMap()
	for name, fn := range PythonFuncs() {
		funcs[name] = fn
	}
	return &TemplateEngine{fsys: fsys, cache: cache, funcs: funcs}
}

// Render renders the template stored as name + Extension
func (e *TemplateEngine) Render(name string, data any) (string, error) {
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return execute(tmpl, data)
}

func (e *TemplateEngine) lookup(name string) (*template.Template, error) {
	if e.cache != nil {
		if tmpl, ok := e.cache.Get(name); ok {
			return tmpl, nil
		}
	}
	raw, err := fs.ReadFile(e.fsys, name+Extension)
	if err != nil {
		return nil, fmt.Errorf("template not found: %s: %w", name, err)
	}
	tmpl, err := e.parse(name, string(raw))
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Add(name, tmpl)
	}
	return tmpl, nil
}

func (e *TemplateEngine) parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(e.funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}
