// cmd/tools/worker-generator/generator.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"travel-planner/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	ID           string
	Name         string
	PackageName  string
	TaskType     string
	Description  string
	Timeout      string
	InputFields  []Field
	OutputFields []Field
}

// Field is one struct field derived from a schema property.
type Field struct {
	Name    string
	GoType  string
	JSONTag string
	Comment string
}

// schemaFields turns the top-level properties of a JSON schema into sorted struct fields.
func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		f := Field{
			Name:    exportedName(name),
			GoType:  goTypeFromJSONType(details["type"]),
			JSONTag: fmt.Sprintf("`json:\"%s\"`", name),
		}
		if desc, ok := details["description"].(string); ok {
			f.Comment = desc
		}
		fields = append(fields, f)
	}
	return fields
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// exportedName converts camelCase, snake_case and kebab-case names to an exported Go identifier.
func exportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

// PackageName derives the Go package name for a stage ID.
func PackageName(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

func newWorkerData(stage *registry.Stage) WorkerData {
	timeout := stage.Timeout
	if timeout == "" {
		timeout = "60s"
	}
	return WorkerData{
		ID:           stage.ID,
		Name:         stage.DisplayName,
		PackageName:  PackageName(stage.ID),
		TaskType:     stage.TaskType,
		Description:  stage.Description,
		Timeout:      timeout,
		InputFields:  schemaFields(stage.InputSchema),
		OutputFields: schemaFields(stage.OutputSchema),
	}
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

// Generate writes a worker scaffold for stage into outputDir/<stage id> and returns the files written.
// Existing files are left alone unless force is set.
func Generate(stage *registry.Stage, outputDir string, force bool) ([]string, error) {
	data := newWorkerData(stage)
	workerDir := filepath.Join(outputDir, stage.ID)
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		return nil, fmt.Errorf("create worker directory: %w", err)
	}

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(workerDir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return written, fmt.Errorf("%s already exists", path)
		}

		src, err := render(name, templates[name], data)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func render(name, tmplStr string, data WorkerData) ([]byte, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}
