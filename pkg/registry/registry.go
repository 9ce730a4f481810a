// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/validation"
)

var validStatuses = map[string]bool{
	StatusPlanned:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusVerified:   true,
}

func LoadRegistry(path string) (*StageRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg StageRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

// New returns an empty registry stamped with now.
func New(now time.Time) *StageRegistry {
	return &StageRegistry{
		Version:     "1.0.0",
		LastUpdated: now.Format(time.RFC3339),
		Stages:      []Stage{},
	}
}

func (r *StageRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the stage registered for taskType.
func (r *StageRegistry) Find(taskType string) (*Stage, bool) {
	for i := range r.Stages {
		if r.Stages[i].TaskType == taskType {
			return &r.Stages[i], true
		}
	}
	return nil, false
}

func (r *StageRegistry) Add(stage Stage, now time.Time) error {
	for _, existing := range r.Stages {
		if existing.ID == stage.ID {
			return fmt.Errorf("stage with ID %s already exists", stage.ID)
		}
	}
	r.Stages = append(r.Stages, stage)
	r.LastUpdated = now.Format(time.RFC3339)
	return nil
}

// Update sets one scalar field of the stage with the given ID.
func (r *StageRegistry) Update(id, field, value string, now time.Time) error {
	var stage *Stage
	for i := range r.Stages {
		if r.Stages[i].ID == id {
			stage = &r.Stages[i]
			break
		}
	}
	if stage == nil {
		return fmt.Errorf("stage with ID %s not found", id)
	}

	switch field {
	case "status":
		if !validStatuses[value] {
			return fmt.Errorf("invalid status %q", value)
		}
		stage.ImplementationStatus = value
	case "version":
		stage.Version = value
	case "displayName":
		stage.DisplayName = value
	case "description":
		stage.Description = value
	case "category":
		stage.Category = value
	case "taskType":
		stage.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		stage.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		stage.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	r.LastUpdated = now.Format(time.RFC3339)
	return nil
}

// Validate checks required fields, uniqueness, task type naming and that every schema compiles.
func (r *StageRegistry) Validate() error {
	if len(r.Stages) == 0 {
		return errors.New("registry contains no stages")
	}

	var problems []string
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, s := range r.Stages {
		if s.ID == "" {
			problems = append(problems, "stage missing required field: id")
			continue
		}
		if ids[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate stage ID: %s", s.ID))
		}
		ids[s.ID] = true

		if s.TaskType == "" {
			problems = append(problems, fmt.Sprintf("stage %s: missing taskType", s.ID))
		} else {
			if err := validation.ValidateStageName(s.TaskType); err != nil {
				problems = append(problems, fmt.Sprintf("stage %s: %v", s.ID, err))
			}
			if taskTypes[s.TaskType] {
				problems = append(problems, fmt.Sprintf("duplicate taskType: %s", s.TaskType))
			}
			taskTypes[s.TaskType] = true
		}

		if s.ImplementationStatus != "" && !validStatuses[s.ImplementationStatus] {
			problems = append(problems, fmt.Sprintf("stage %s: invalid status %q", s.ID, s.ImplementationStatus))
		}
		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				problems = append(problems, fmt.Sprintf("stage %s: invalid timeout %q", s.ID, s.Timeout))
			}
		}
		if _, err := s.InputValidator(); err != nil {
			problems = append(problems, fmt.Sprintf("stage %s: inputSchema: %v", s.ID, err))
		}
		if len(s.OutputSchema) > 0 {
			if _, err := validation.Compile(s.OutputSchema); err != nil {
				problems = append(problems, fmt.Sprintf("stage %s: outputSchema: %v", s.ID, err))
			}
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// InputValidator compiles the stage's input schema. An empty schema accepts anything.
func (s *Stage) InputValidator() (*validation.Schema, error) {
	if len(s.InputSchema) == 0 {
		return validation.Compile(map[string]interface{}{"type": "object"})
	}
	return validation.Compile(s.InputSchema)
}

// ValidateInput checks raw job variables against the input schema and returns an
// INVALID_REQUEST error listing every violation.
func (s *Stage) ValidateInput(variables []byte) error {
	schema, err := s.InputValidator()
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("stage %s: %w", s.ID, err))
	}
	result, err := schema.ValidateJSON(variables)
	if err != nil {
		return apperrors.NewInvalidRequestError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

// TimeoutOr parses the stage timeout, falling back to def when unset or invalid.
func (s *Stage) TimeoutOr(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s.Timeout); err == nil && d > 0 {
		return d
	}
	return def
}
