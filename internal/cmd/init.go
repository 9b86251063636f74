package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskclaim/taskclaim/internal/registry"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the task store in the current directory",
	Long: `Initialize taskclaim in the current directory.
This creates the data directory with an empty task store and session
registry. Running init again is a no-op for documents that already exist.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := os.MkdirAll(e.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tasksCreated, err := e.tasks.Init()
	if err != nil {
		return fmt.Errorf("failed to create task store: %w", err)
	}

	policy := registry.PolicyConfig{
		MaxConcurrentSessions:  e.cfg.Session.MaxConcurrent,
		MaxActiveTasksPerScope: e.cfg.Session.MaxActiveTasksPerScope,
		AllowNestedScopes:      e.cfg.Session.AllowNestedScopes,
		AllowScopeOverlap:      e.cfg.Session.AllowScopeOverlap,
	}
	regCreated, err := e.registry.Init(policy)
	if err != nil {
		return fmt.Errorf("failed to create session registry: %w", err)
	}

	if !tasksCreated && !regCreated {
		fmt.Printf("Already initialized in %s\n", e.cfg.DataDir)
		return nil
	}

	fmt.Println("Taskclaim initialized successfully!")
	fmt.Printf("Data directory: %s\n", e.cfg.DataDir)
	return nil
}
