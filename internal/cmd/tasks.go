package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskclaim/taskclaim/internal/task"
	"github.com/taskclaim/taskclaim/internal/txn"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks in the shared store",
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the store",
	Long: `Add a task to the shared store. With --parent the task becomes a
child of an existing task, subject to the configured depth and sibling
limits.`,
	Args: cobra.ExactArgs(1),
	RunE: runTasksAdd,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with status and hierarchy",
	RunE:  runTasksList,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

var (
	addParent   string
	addPriority string
	addPhase    string
)

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksDoneCmd)

	tasksAddCmd.Flags().StringVar(&addParent, "parent", "", "Parent task ID")
	tasksAddCmd.Flags().StringVar(&addPriority, "priority", string(task.PriorityMedium), "Priority (critical, high, medium, low)")
	tasksAddCmd.Flags().StringVar(&addPhase, "phase", "", "Phase label for epicPhase scopes")
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	priority := task.Priority(addPriority)
	if priority.Rank() == 0 {
		return fmt.Errorf("unknown priority %q", addPriority)
	}

	policy := task.LimitPolicy{
		MaxDepth:    e.cfg.Tasks.MaxDepth,
		MaxChildren: e.cfg.Tasks.MaxChildren,
	}

	var id string
	err = withTaskStoreLock(e, func(doc *task.Document) error {
		if err := policy.CanAddChild(task.NewSnapshot(doc), addParent); err != nil {
			return err
		}

		now := time.Now().UTC()
		id = doc.NextID()
		doc.Tasks = append(doc.Tasks, task.Task{
			ID:        id,
			ParentID:  addParent,
			Title:     args[0],
			Status:    task.StatusPending,
			Phase:     addPhase,
			Priority:  priority,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return e.tasks.Save(doc)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added task %s\n", id)
	return nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	doc, err := e.tasks.Load()
	if err != nil {
		return err
	}
	if len(doc.Tasks) == 0 {
		fmt.Println("No tasks. Run 'taskclaim tasks add' to create one.")
		return nil
	}

	snap := task.NewSnapshot(doc)
	for _, t := range doc.Tasks {
		indent := ""
		for i := 0; i < snap.Depth(t.ID); i++ {
			indent += "  "
		}
		title := t.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s%s  %-9s %-8s %s\n", indent, t.ID, renderTaskStatus(t.Status), t.Priority, title)
	}
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	err = withTaskStoreLock(e, func(doc *task.Document) error {
		t := doc.Find(args[0])
		if t == nil {
			return fmt.Errorf("task not found: %s", args[0])
		}
		t.Status = task.StatusDone
		t.UpdatedAt = time.Now().UTC()
		return e.tasks.Save(doc)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Task %s marked done\n", args[0])
	return nil
}

// withTaskStoreLock runs fn with the task store locked and loaded. Task
// edits touch only one document, so no registry lock is needed.
func withTaskStoreLock(e *env, fn func(*task.Document) error) error {
	lock := txn.NewFileLock(e.tasks.Path())
	if err := lock.Acquire(e.cfg.Lock.Timeout(), e.cfg.Lock.PollInterval()); err != nil {
		return err
	}
	defer lock.Release()

	doc, err := e.tasks.Load()
	if err != nil {
		return err
	}
	return fn(doc)
}
