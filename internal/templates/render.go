// Package templates renders the page and the HTML fragments patched into it
// over the Datastar event stream.
package templates

import (
	"bytes"
	"html/template"
	"io/fs"
	"sync"

	"github.com/pkg/errors"
)

// Renderer manages HTML templates parsed from a file system.
type Renderer struct {
	fsys     fs.FS
	patterns []string

	mu        sync.RWMutex
	templates *template.Template
}

// New parses every template in fsys matching patterns.
func New(fsys fs.FS, patterns ...string) (*Renderer, error) {
	r := &Renderer{fsys: fsys, patterns: patterns}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return errors.Wrapf(r.templates.ExecuteTemplate(buf, name, data), "render %s", name)
}

// Reload parses the templates again (useful with an on-disk file system
// during development).
func (r *Renderer) Reload() error {
	if len(r.patterns) == 0 {
		return errors.New("no template patterns")
	}
	tmpl, err := template.ParseFS(r.fsys, r.patterns...)
	if err != nil {
		return errors.Wrap(err, "parse templates")
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()
	return nil
}
