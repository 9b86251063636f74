package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage live sessions",
	Long:  `Commands for listing and cleaning up sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all live sessions and recent history",
	RunE:  runSessionsList,
}

var sessionsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "End sessions with no recent activity",
	Long: `End every live session whose last activity is older than --max-age.
Stale sessions are usually leftovers from an invocation that crashed
before ending; their focus tasks revert to pending.`,
	RunE: runSessionsClean,
}

var cleanMaxAge time.Duration

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsCleanCmd)

	sessionsCleanCmd.Flags().DurationVar(&cleanMaxAge, "max-age", 24*time.Hour, "Inactivity threshold for stale sessions")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	doc, err := e.registry.Load()
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("─", 70))
	fmt.Println(headerStyle.Render("Taskclaim Sessions"))
	fmt.Println(strings.Repeat("─", 70))

	if len(doc.Sessions) == 0 {
		fmt.Println("\nNo live sessions.")
		fmt.Println("Run 'taskclaim start' to create one.")
	} else {
		fmt.Printf("\n%d live session(s):\n\n", len(doc.Sessions))
		for _, s := range doc.Sessions {
			name := s.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("  Session: %s\n", s.ID)
			fmt.Printf("    Name:     %s\n", name)
			fmt.Printf("    Status:   %s\n", renderSessionStatus(s.Status))
			fmt.Printf("    Focus:    %s\n", s.Focus.CurrentTask)
			fmt.Printf("    Tasks:    %d claimed\n", len(s.Scope.ComputedTaskIDs))
			fmt.Printf("    Activity: %s\n", s.LastActivity.Local().Format(time.RFC822))
			if s.SuspendedAt != nil {
				fmt.Printf("    Suspended: %s\n", s.SuspendedAt.Local().Format(time.RFC822))
			}
			fmt.Println()
		}
	}

	if len(doc.History) > 0 {
		fmt.Printf("Ended sessions (%d):\n", len(doc.History))
		for _, h := range doc.History {
			line := fmt.Sprintf("  - %s ended %s (%d tasks completed)",
				h.ID, h.EndedAt.Local().Format(time.RFC822), h.Stats.TasksCompleted)
			fmt.Println(dimStyle.Render(line))
		}
	}

	fmt.Println(strings.Repeat("─", 70))
	return nil
}

func runSessionsClean(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireInit(); err != nil {
		return err
	}

	ended, err := e.manager.CleanupStale(cleanMaxAge)
	if err != nil {
		return err
	}
	if len(ended) == 0 {
		fmt.Println("No stale sessions to clean")
		return nil
	}

	fmt.Printf("Ended %d stale session(s):\n", len(ended))
	for _, id := range ended {
		fmt.Printf("  - %s\n", id)
	}
	return nil
}
