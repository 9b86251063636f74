package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var suspendCmd = &cobra.Command{
	Use:   "suspend <session-id>",
	Short: "Suspend an active session",
	Long: `Suspend an active session. The session keeps its scope and focus
claims; other sessions still see them when checking for conflicts. Use
'taskclaim resume' to pick the session back up.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuspend,
}

var suspendNote string

func init() {
	rootCmd.AddCommand(suspendCmd)
	suspendCmd.Flags().StringVar(&suspendNote, "note", "", "Note recorded with the suspension")
}

func runSuspend(cmd *cobra.Command, args []string) error {
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
	if err := e.manager.Suspend(id, suspendNote); err != nil {
		return err
	}

	fmt.Printf("Session %s suspended\n", id)
	return nil
}
