// Package cmd implements the lopen command-line interface. Commands are
// thin consumers of the persistent store: they resolve the project root,
// open the store, and call into the session, plan, and cache managers.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lopen",
	Short: "Multi-phase software-engineering workflow agent",
	Long: `Lopen drives a multi-phase software-engineering workflow (requirement
gathering, planning, building, research) against a project, tracking
verification state across long-running, interruptible sessions.

Session state, metrics, and task plans persist under .lopen/ in the
project root, so a run can be resumed after interruption.`,
}

var projectFlag string

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "project root (default is the current directory)")
}

// projectRoot resolves the project directory the commands operate on.
func projectRoot() (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}
	return os.Getwd()
}
