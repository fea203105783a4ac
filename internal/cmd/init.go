package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage/initialize"
	"github.com/lopen-dev/lopen/internal/storage/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the lopen store in the project",
	Long: `Initialize the lopen store in the project root.
This creates the .lopen directory layout for sessions, plans, and caches,
and adds a .lopen/ entry to an existing .gitignore. Safe to run repeatedly.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}

	layout := paths.NewLayout(root)
	initializer := initialize.New(fsys.NewOS(), layout, logging.NopLogger())
	if err := initializer.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	fmt.Println("Lopen store initialized.")
	fmt.Printf("Store directory: %s\n", layout.Root())
	return nil
}
