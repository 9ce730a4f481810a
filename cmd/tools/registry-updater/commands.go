// cmd/tools/registry-updater/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"travel-planner/pkg/registry"
)

const defaultRegistryPath = "configs/stage-registry.json"

func newRootCmd(now func() time.Time) *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Maintain the pipeline stage registry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&path, "path", defaultRegistryPath, "Path to the stage registry file")

	root.AddCommand(
		newListCmd(&path),
		newAddCmd(&path, now),
		newUpdateCmd(&path, now),
		newValidateCmd(&path),
		newCheckCmd(&path),
	)
	return root
}

func newListCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return err
			}

			stages := append([]registry.Stage(nil), reg.Stages...)
			sort.Slice(stages, func(i, j int) bool { return stages[i].ID < stages[j].ID })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTASK TYPE\tSTATUS\tVERSION\tTIMEOUT")
			for _, s := range stages {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.TaskType, s.ImplementationStatus, s.Version, s.Timeout)
			}
			return w.Flush()
		},
	}
}

func newAddCmd(path *string, now func() time.Time) *cobra.Command {
	var stage registry.Stage
	var workflows, tags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new stage",
		Long: `Register a new stage with an open input schema.

Edit the registry file afterwards to describe the stage's input and output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadOrCreate(*path, now())
			if err != nil {
				return err
			}
			if stage.TaskType == "" {
				stage.TaskType = stage.ID
			}
			stage.InputSchema = map[string]interface{}{"type": "object"}
			stage.OutputSchema = map[string]interface{}{"type": "object"}
			stage.ErrorCodes = []string{}
			stage.Workflows = nonNil(workflows)
			stage.Tags = nonNil(tags)

			if err := reg.Add(stage, now()); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry would be invalid: %w", err)
			}
			if err := reg.Save(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added stage: %s\n", stage.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&stage.ID, "id", "", "Stage ID (e.g., search-flights)")
	f.StringVar(&stage.DisplayName, "display-name", "", "Display name (e.g., Search Flights)")
	f.StringVar(&stage.Description, "description", "", "Description")
	f.StringVar(&stage.Category, "category", "", "Category (e.g., search)")
	f.StringVar(&stage.TaskType, "task-type", "", "Zeebe job type, defaults to the ID")
	f.StringVar(&stage.Version, "version", "1.0.0", "Version")
	f.StringVar(&stage.ImplementationStatus, "status", registry.StatusPlanned, "Implementation status (planned, in-progress, completed, verified)")
	f.StringVar(&stage.Timeout, "timeout", "60s", "Job timeout")
	f.IntVar(&stage.Retries, "retries", 3, "Job retries")
	f.StringSliceVar(&workflows, "workflows", nil, "Workflows using the stage")
	f.StringSliceVar(&tags, "tags", nil, "Tags")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("display-name")
	return cmd
}

func newUpdateCmd(path *string, now func() time.Time) *cobra.Command {
	var id, field, value string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set one field of a registered stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return err
			}
			if err := reg.Update(id, field, value, now()); err != nil {
				return err
			}
			if err := reg.Save(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated stage %s: %s = %s\n", id, field, value)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "Stage ID to update")
	f.StringVar(&field, "field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	f.StringVar(&value, "value", "", "New value for the field")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newValidateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the registry for missing, duplicate and malformed entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry is valid (%d stages)\n", len(reg.Stages))
			return nil
		},
	}
}

func newCheckCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <task-type> <variables.json>",
		Short: "Validate job variables against a stage's input schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return err
			}
			stage, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("no stage with task type %s", args[0])
			}

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("%s is not valid JSON", args[1])
			}
			if err := stage.ValidateInput(raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Variables accepted by %s\n", stage.TaskType)
			return nil
		},
	}
}

func loadOrCreate(path string, now time.Time) (*registry.StageRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if os.IsNotExist(err) {
		return registry.New(now), nil
	}
	return reg, err
}

func nonNil(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
