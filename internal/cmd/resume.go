package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/storage/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Show the resumable state of a session",
	Long: `Show where a workflow session left off. With no argument, the latest
session is used. A session whose state cannot be parsed is reported as
corrupted rather than silently skipped; quarantine it before resuming.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

var labelStyle = lipgloss.NewStyle().Bold(true).Width(12)

func runResume(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var id session.ID
	if len(args) == 1 {
		id, err = session.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session ID %q: %w", args[0], err)
		}
	} else {
		id, err = st.sessions.GetLatest(ctx)
		if err != nil {
			if storage.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no session to resume; start one with a workflow run")
			}
			return err
		}
	}

	state, err := st.sessions.LoadState(ctx, id)
	if err != nil {
		if storage.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("session %s has no state on disk", id)
		}
		return fmt.Errorf("session %s is corrupted and cannot be resumed: %w", id, err)
	}

	fmt.Println(labelStyle.Render("Session:") + state.SessionID)
	fmt.Println(labelStyle.Render("Module:") + state.Module)
	fmt.Println(labelStyle.Render("Phase:") + state.Phase)
	if state.Step != "" {
		fmt.Println(labelStyle.Render("Step:") + state.Step)
	}
	if state.Component != "" {
		fmt.Println(labelStyle.Render("Component:") + state.Component)
	}
	if state.Task != "" {
		fmt.Println(labelStyle.Render("Task:") + state.Task)
	}
	fmt.Println(labelStyle.Render("Updated:") + state.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if state.IsComplete {
		fmt.Println(labelStyle.Render("Status:") + "complete")
	}
	return nil
}
