package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskclaim/taskclaim/internal/registry"
	"github.com/taskclaim/taskclaim/internal/task"
	"github.com/taskclaim/taskclaim/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow document changes made by other sessions",
	Long: `Watch the data directory and print a summary line whenever another
invocation writes the task store or the session registry. Ctrl-C stops
watching.`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond, "Quiet period before reporting a batch of changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	w, err := watch.New(e.cfg.DataDir,
		[]string{task.FileName, registry.FileName},
		watchDebounce,
		func(changed []string) { reportChanges(e, changed) },
		e.log)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		return err
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", e.cfg.DataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopped watching")
	return nil
}

// reportChanges prints one summary line per changed document. Loads are
// best-effort: a mid-write read can legitimately fail and will be
// reported again once the writer finishes.
func reportChanges(e *env, changed []string) {
	stamp := time.Now().Format("15:04:05")
	for _, name := range changed {
		switch name {
		case task.FileName:
			doc, err := e.tasks.Load()
			if err != nil {
				fmt.Printf("[%s] %s changed (%v)\n", stamp, name, err)
				continue
			}
			active := 0
			for _, t := range doc.Tasks {
				if t.Status == task.StatusActive {
					active++
				}
			}
			fmt.Printf("[%s] %s: %d tasks, %d active\n", stamp, name, len(doc.Tasks), active)

		case registry.FileName:
			doc, err := e.registry.Load()
			if err != nil {
				fmt.Printf("[%s] %s changed (%v)\n", stamp, name, err)
				continue
			}
			fmt.Printf("[%s] %s: %d live sessions, %d ended\n", stamp, name, len(doc.Sessions), len(doc.History))
		}
	}
}
