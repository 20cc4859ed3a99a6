package templates

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// AppNameKey is the data key the layout reads the application name from.
const AppNameKey = "appName"

// Template is a named generator of subject, HTML and text content.
type Template struct {
	Name    string
	Subject func(Data) string
	HTML    func(Data) templ.Component
	// Text is optional. When nil the text body is derived from the HTML.
	Text func(Data) string
}

// Rendered is the output of a template.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Registry is a concurrency-safe table of templates keyed by name.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a registry holding ts. It panics on an invalid
// definition since templates are declared at startup.
func NewRegistry(ts ...Template) *Registry {
	r := &Registry{templates: make(map[string]Template, len(ts))}
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if t.Subject == nil || t.HTML == nil {
		return fmt.Errorf("%w: %s: subject and html are required", ErrInvalidTemplate, t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Name] = t
	return nil
}

// Has reports whether a template is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[name]
	return ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Render produces the subject and bodies of the named template.
// Rendering has no side effects and is safe to call concurrently.
func (r *Registry) Render(ctx context.Context, name string, data Data) (Rendered, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if data == nil {
		data = Data{}
	}

	body, err := Render(ctx, t.HTML(data))
	if err != nil {
		return Rendered{}, errors.Join(fmt.Errorf("%w: %s", ErrRenderFailed, name), err)
	}

	out := Rendered{
		Subject: strings.TrimSpace(t.Subject(data)),
		HTML:    body,
	}
	if t.Text != nil {
		out.Text = strings.TrimSpace(t.Text(data))
	}
	if out.Text == "" {
		out.Text = StripHTML(body)
	}
	return out, nil
}
