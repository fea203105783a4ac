package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect lopen configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after layering defaults, the store's
config.json, and LOPEN_* environment variables.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("Config file: %s\n\n", st.layout.ConfigFile())
	fmt.Printf("session.retention        = %d\n", st.cfg.Session.Retention)
	fmt.Printf("cache.enabled            = %t\n", st.cfg.Cache.Enabled)
	fmt.Printf("cache.watch_invalidation = %t\n", st.cfg.Cache.WatchInvalidation)
	fmt.Printf("logging.level            = %s\n", st.cfg.Logging.Level)
	return nil
}
