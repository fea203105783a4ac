package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/util"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage lopen sessions",
	Long:  `Commands for listing and pruning lopen workflow sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Long: `List all workflow sessions with their status:
- Session ID (module, date, counter)
- Current phase and step
- Last update time and completion`,
	RunE: runSessionsList,
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old sessions beyond the retention window",
	Long: `Delete the oldest sessions until only the retained number remain.
The retention count comes from session.retention in the configuration
unless overridden with --retain.`,
	RunE: runSessionsPrune,
}

var pruneRetain int

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)

	sessionsPruneCmd.Flags().IntVar(&pruneRetain, "retain", 0, "number of most-recent sessions to keep (default from config)")
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	staleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	corruptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func runSessionsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ids, err := st.sessions.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	latest, _ := st.sessions.GetLatest(ctx)

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-32s %-14s %-16s %-10s %s", "SESSION", "PHASE", "STEP", "STATUS", "UPDATED")))
	for _, id := range ids {
		state, err := st.sessions.LoadState(ctx, id)
		if err != nil {
			if storage.Is(err, storage.ErrNotFound) {
				continue
			}
			fmt.Println(corruptStyle.Render(fmt.Sprintf("%-32s %s", id, "corrupted state")))
			continue
		}

		status := staleStyle.Render("active")
		if state.IsComplete {
			status = completeStyle.Render("complete")
		}
		marker := " "
		if !latest.IsZero() && latest.Compare(id) == 0 {
			marker = "*"
		}

		line := fmt.Sprintf("%s%-31s %-14s %-16s %-10s %s",
			marker, id, state.Phase, state.Step, status,
			state.UpdatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Println(util.TruncateANSI(line, width))
	}
	if !latest.IsZero() {
		fmt.Println(strings.Repeat("-", min(width, 40)))
		fmt.Printf("* latest session\n")
	}
	return nil
}

func runSessionsPrune(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	retain := pruneRetain
	if retain == 0 {
		retain = st.cfg.Session.Retention
	}

	removed, err := st.sessions.Prune(cmd.Context(), retain)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d session(s), retaining the %d most recent.\n", removed, retain)
	return nil
}
