package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskclaim/taskclaim/internal/lifecycle"
	"github.com/taskclaim/taskclaim/internal/scope"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a session claiming a scope of tasks",
	Long: `Start a new session over a scope of tasks.

The scope type decides which tasks the session claims:
  task       the root task only
  taskGroup  the root task and its direct children
  subtree    the root task and all descendants (--max-depth bounds it)
  epic       same as subtree, by convention rooted at an epic
  epicPhase  the subtree filtered to one phase (--phase)
  custom     an explicit task list (--task, repeatable)

Without --focus, the highest-priority unclaimed pending task in the scope
becomes the focus.`,
	RunE: runStart,
}

var (
	startName      string
	startAgent     string
	startScopeType string
	startRoot      string
	startPhase     string
	startMaxDepth  int
	startExclude   []string
	startTasks     []string
	startFocus     string
)

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVar(&startName, "name", "", "Human-readable session name")
	startCmd.Flags().StringVar(&startAgent, "agent", "", "Agent identifier for the session")
	startCmd.Flags().StringVar(&startScopeType, "scope", "subtree", "Scope type (task, taskGroup, subtree, epic, epicPhase, custom)")
	startCmd.Flags().StringVar(&startRoot, "root", "", "Root task ID for hierarchical scopes")
	startCmd.Flags().StringVar(&startPhase, "phase", "", "Phase filter for epicPhase scopes")
	startCmd.Flags().IntVar(&startMaxDepth, "max-depth", 0, "Maximum descent depth for subtree scopes (0 = unbounded)")
	startCmd.Flags().StringSliceVar(&startExclude, "exclude", nil, "Task IDs to exclude from the scope")
	startCmd.Flags().StringSliceVar(&startTasks, "task", nil, "Task IDs for custom scopes (repeatable)")
	startCmd.Flags().StringVar(&startFocus, "focus", "", "Focus task ID (default: auto-selected)")
}

func runStart(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	decl, err := buildScopeDeclaration(startScopeType, startRoot, startPhase, startMaxDepth, startExclude, startTasks)
	if err != nil {
		return err
	}

	res, err := e.manager.Start(lifecycle.StartRequest{
		Name:        startName,
		AgentID:     startAgent,
		Scope:       decl,
		FocusTaskID: startFocus,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", headerStyle.Render("Session started:"), res.Session.ID)
	fmt.Printf("  Scope: %s (%d tasks)\n", decl.Type, len(res.Session.Scope.ComputedTaskIDs))
	fmt.Printf("  Focus: %s\n", res.Session.Focus.CurrentTask)
	if res.Warning != "" {
		fmt.Printf("  %s %s\n", warnStyle.Render("Warning:"), res.Warning)
	}
	return nil
}

// buildScopeDeclaration maps the start flags onto a scope declaration,
// rejecting flag combinations the resolver would misread.
func buildScopeDeclaration(scopeType, root, phase string, maxDepth int, exclude, tasks []string) (scope.Declaration, error) {
	t := scope.Type(scopeType)
	if !t.Valid() {
		return scope.Declaration{}, fmt.Errorf("unknown scope type %q", scopeType)
	}

	if t == scope.TypeCustom {
		if len(tasks) == 0 {
			return scope.Declaration{}, fmt.Errorf("custom scopes require at least one --task")
		}
		if root != "" {
			return scope.Declaration{}, fmt.Errorf("--root is ignored for custom scopes; use --task")
		}
	} else {
		if root == "" {
			return scope.Declaration{}, fmt.Errorf("%s scopes require --root", t)
		}
		if len(tasks) > 0 {
			return scope.Declaration{}, fmt.Errorf("--task only applies to custom scopes (got %s)", strings.Join(tasks, ", "))
		}
	}
	if t == scope.TypeEpicPhase && phase == "" {
		return scope.Declaration{}, fmt.Errorf("epicPhase scopes require --phase")
	}

	return scope.Declaration{
		Type:           t,
		RootTaskID:     root,
		PhaseFilter:    phase,
		MaxDepth:       maxDepth,
		ExcludeTaskIDs: exclude,
		CustomTaskIDs:  tasks,
	}, nil
}
