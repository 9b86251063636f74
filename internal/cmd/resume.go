package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume a suspended session",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
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
	s, err := e.manager.Resume(id)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s resumed\n", s.ID)
	fmt.Printf("  Focus: %s\n", s.Focus.CurrentTask)
	return nil
}
