package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var endCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End a session and release its claims",
	Long: `End a live session (active or suspended). The session moves to the
registry's history, and a focus task it left active reverts to pending so
other sessions can claim it.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnd,
}

var endNote string

func init() {
	rootCmd.AddCommand(endCmd)
	endCmd.Flags().StringVar(&endNote, "note", "", "Note recorded with the ended session")
}

func runEnd(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	id, err := e.resolveSessionID(args[0])
	if err != nil {
		return err
	}
	rec, err := e.manager.End(id, endNote)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s ended\n", id)
	fmt.Printf("  Tasks completed: %d\n", rec.Stats.TasksCompleted)
	fmt.Printf("  Focus changes:   %d\n", rec.Stats.FocusChanges)
	return nil
}
