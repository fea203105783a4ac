package cmd

import (
	"fmt"
	"os"

	"github.com/lopen-dev/lopen/internal/config"
	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage/paths"
	"github.com/lopen-dev/lopen/internal/storage/session"
)

// store bundles the pieces a command needs to talk to the project store.
type store struct {
	root     string
	cfg      *config.Config
	layout   paths.Layout
	fs       fsys.FS
	log      *logging.Logger
	sessions *session.Manager
}

// openStore resolves the project root and wires up the store components.
// The debug log goes to the store directory when it exists; commands run
// against an uninitialized project stay silent rather than creating it
// as a side effect.
func openStore() (*store, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	layout := paths.NewLayout(root)
	log := logging.NopLogger()
	if _, err := os.Stat(layout.Root()); err == nil {
		log, err = logging.NewLogger(layout.Root(), cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
	}

	fs := fsys.NewOS()
	return &store{
		root:     root,
		cfg:      cfg,
		layout:   layout,
		fs:       fs,
		log:      log,
		sessions: session.NewManager(fs, layout, log),
	}, nil
}
