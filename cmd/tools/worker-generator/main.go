// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"travel-planner/pkg/registry"
)

func main() {
	stageID := flag.String("stage", "", "Stage ID from the registry (e.g., search-trains)")
	outputDir := flag.String("output", "./internal/workers/travel/", "Directory the worker package is created in")
	registryPath := flag.String("registry", "configs/stage-registry.json", "Path to the stage registry JSON file")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *stageID == "" {
		fmt.Println("Usage: worker-generator --stage <id> [--output <dir>] [--registry <path>] [--force]")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/tools/worker-generator --stage search-trains")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	var stage *registry.Stage
	for i := range reg.Stages {
		if reg.Stages[i].ID == *stageID {
			stage = &reg.Stages[i]
			break
		}
	}
	if stage == nil {
		fmt.Printf("Stage '%s' not found in registry %s\n", *stageID, *registryPath)
		os.Exit(1)
	}

	files, err := Generate(stage, *outputDir, *force)
	for _, f := range files {
		fmt.Printf("Generated %s\n", f)
	}
	if err != nil {
		fmt.Printf("Error generating worker: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Implement a Service for %s\n", stage.TaskType)
	fmt.Printf("  2. Register the worker in cmd/worker-manager/main.go\n")
	fmt.Printf("  3. Add a workers.%s section to configs/config.yaml\n", stage.TaskType)
}
