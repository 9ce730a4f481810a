// cmd/tools/worker-generator/generator_test.go
package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/pkg/registry"
)

func trainStage() *registry.Stage {
	return &registry.Stage{
		ID:          "search-trains",
		DisplayName: "Search Trains",
		Description: "Looks up rail connections",
		TaskType:    "search-trains",
		Timeout:     "45s",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"origin":      map[string]interface{}{"type": "string", "description": "Departure station"},
				"passengers":  map[string]interface{}{"type": "integer"},
				"return_trip": map[string]interface{}{"type": "boolean"},
			},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"trains": map[string]interface{}{"type": "array"},
			},
		},
	}
}

func TestGoTypeFromJSONType(t *testing.T) {
	tests := map[interface{}]string{
		"string":  "string",
		"integer": "int",
		"number":  "float64",
		"boolean": "bool",
		"object":  "map[string]interface{}",
		"array":   "[]interface{}",
		nil:       "interface{}",
	}
	for in, want := range tests {
		assert.Equal(t, want, goTypeFromJSONType(in), "%v", in)
	}
}

func TestExportedName(t *testing.T) {
	assert.Equal(t, "FlightRequest", exportedName("flightRequest"))
	assert.Equal(t, "ReturnTrip", exportedName("return_trip"))
	assert.Equal(t, "CheckInDate", exportedName("check-in-date"))
	assert.Equal(t, "searchtrains", PackageName("search-trains"))
}

func TestSchemaFields_Sorted(t *testing.T) {
	fields := schemaFields(trainStage().InputSchema)
	require.Len(t, fields, 3)
	assert.Equal(t, "Origin", fields[0].Name)
	assert.Equal(t, "Departure station", fields[0].Comment)
	assert.Equal(t, "Passengers", fields[1].Name)
	assert.Equal(t, "int", fields[1].GoType)
	assert.Equal(t, "`json:\"return_trip\"`", fields[2].JSONTag)

	assert.Empty(t, schemaFields(map[string]interface{}{"type": "object"}))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()

	files, err := Generate(trainStage(), dir, false)
	require.NoError(t, err)
	require.Len(t, files, 4)

	fset := token.NewFileSet()
	for _, name := range []string{"config.go", "handler.go", "handler_test.go", "models.go"} {
		path := filepath.Join(dir, "search-trains", name)
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		require.NoError(t, err, name)
		assert.Equal(t, "searchtrains", f.Name.Name)
	}

	handler, err := os.ReadFile(filepath.Join(dir, "search-trains", "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `const TaskType = "search-trains"`)

	models, err := os.ReadFile(filepath.Join(dir, "search-trains", "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "Origin")
	assert.Contains(t, string(models), "// Departure station")
	assert.Contains(t, string(models), `json:"trains"`)
}

func TestGenerate_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := Generate(trainStage(), dir, false)
	require.NoError(t, err)

	_, err = Generate(trainStage(), dir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	files, err := Generate(trainStage(), dir, true)
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestShippedStagesGenerate(t *testing.T) {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", "configs", "stage-registry.json"))
	require.NoError(t, err)

	dir := t.TempDir()
	for i := range reg.Stages {
		_, err := Generate(&reg.Stages[i], dir, false)
		assert.NoError(t, err, reg.Stages[i].ID)
	}
}
