// Package templates renders the startup scripts passed to cluster
// instances as user data.
//
// Each script is a text/template. The embedded defaults can be replaced per
// role through config.TemplatesConfig.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"

	"github.com/imamik/spotcluster/internal/config"
)

//go:embed scripts/*.tmpl
var scriptsFS embed.FS

const (
	controllerScript = "scripts/controller.sh.tmpl"
	workerScript     = "scripts/worker.sh.tmpl"
)

// ControllerData fills the controller script.
type ControllerData struct {
	DevicePath    string
	MountPath     string
	NetworkPrefix string
}

// WorkerData fills the worker script.
type WorkerData struct {
	MountPath    string
	ControllerIP string
}

// Renderer renders startup scripts, preferring configured overrides.
type Renderer struct {
	overrides config.TemplatesConfig
}

// NewRenderer returns a renderer for the given overrides.
func NewRenderer(overrides config.TemplatesConfig) *Renderer {
	return &Renderer{overrides: overrides}
}

// Controller renders the controller startup script.
func (r *Renderer) Controller(data ControllerData) (string, error) {
	return r.render("templates.controller", r.overrides.Controller, controllerScript, data)
}

// Worker renders the worker startup script.
func (r *Renderer) Worker(data WorkerData) (string, error) {
	return r.render("templates.worker", r.overrides.Worker, workerScript, data)
}

func (r *Renderer) render(field, overridePath, embedded string, data any) (string, error) {
	content, name, err := load(field, overridePath, embedded)
	if err != nil {
		return "", err
	}
	return processTemplate(name, content, data)
}

func load(field, overridePath, embedded string) ([]byte, string, error) {
	if overridePath == "" {
		content, err := scriptsFS.ReadFile(embedded)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read embedded template %s: %w", embedded, err)
		}
		return content, embedded, nil
	}

	content, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, "", &config.ConfigurationError{
			Field:  field,
			Reason: fmt.Sprintf("template %s is not readable", overridePath),
			Err:    err,
		}
	}
	return content, overridePath, nil
}

// processTemplate executes content with data. Unknown fields are errors.
func processTemplate(name string, content []byte, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
