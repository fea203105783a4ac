// Package paths is the single source of truth for the on-disk layout of
// the lopen store. Every location is derived from the project root by a
// pure function; no other package constructs store paths itself.
//
// Layout rooted at <project_root>/.lopen/:
//
//	sessions/<module>-<YYYYMMDD>-<counter>/{state.json, metrics.json}
//	sessions/latest                (symlink to the current session dir)
//	modules/<module>/plan.md
//	cache/sections/<key-hash>.json
//	cache/assessments/<key-hash>.json
//	corrupted/                     (quarantined session dirs, names preserved)
//	config.json
//
// Research documents live outside the store at
// docs/requirements/<module>/RESEARCH.md and RESEARCH-<topic>.md; they are
// produced and consumed by the workflow engine, but the naming convention
// is owned here.
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// StoreDirName is the name of the store directory under the project root.
const StoreDirName = ".lopen"

const (
	stateFileName   = "state.json"
	metricsFileName = "metrics.json"
	planFileName    = "plan.md"
	latestLinkName  = "latest"
)

// Layout derives every store location from a project root.
type Layout struct {
	projectRoot string
}

// NewLayout returns a Layout rooted at the given project directory.
func NewLayout(projectRoot string) Layout {
	return Layout{projectRoot: projectRoot}
}

// ProjectRoot returns the project directory the layout is rooted at.
func (l Layout) ProjectRoot() string {
	return l.projectRoot
}

// Root returns the store root, <project_root>/.lopen.
func (l Layout) Root() string {
	return filepath.Join(l.projectRoot, StoreDirName)
}

// SessionsDir returns the directory holding all session directories.
func (l Layout) SessionsDir() string {
	return filepath.Join(l.Root(), "sessions")
}

// SessionDir returns the directory for one session, by canonical ID string.
func (l Layout) SessionDir(id string) string {
	return filepath.Join(l.SessionsDir(), id)
}

// StateFile returns the path of a session's state record.
func (l Layout) StateFile(id string) string {
	return filepath.Join(l.SessionDir(id), stateFileName)
}

// MetricsFile returns the path of a session's metrics record.
func (l Layout) MetricsFile(id string) string {
	return filepath.Join(l.SessionDir(id), metricsFileName)
}

// LatestLink returns the path of the "latest session" symlink.
func (l Layout) LatestLink() string {
	return filepath.Join(l.SessionsDir(), latestLinkName)
}

// ModulesDir returns the directory holding per-module documents.
func (l Layout) ModulesDir() string {
	return filepath.Join(l.Root(), "modules")
}

// ModuleDir returns the directory for one module's documents.
func (l Layout) ModuleDir(module string) string {
	return filepath.Join(l.ModulesDir(), module)
}

// PlanFile returns the path of a module's plan document.
func (l Layout) PlanFile(module string) string {
	return filepath.Join(l.ModuleDir(module), planFileName)
}

// SectionCacheDir returns the directory for cached document sections.
func (l Layout) SectionCacheDir() string {
	return filepath.Join(l.Root(), "cache", "sections")
}

// SectionCacheFile returns the entry path for a (source file, header)
// section key. The filename is a deterministic hash of the key tuple so
// repeated runs address the same file.
func (l Layout) SectionCacheFile(sourceFile, header string) string {
	return filepath.Join(l.SectionCacheDir(), hashKey(sourceFile+"\x00"+header)+".json")
}

// AssessmentCacheDir returns the directory for cached assessments.
func (l Layout) AssessmentCacheDir() string {
	return filepath.Join(l.Root(), "cache", "assessments")
}

// AssessmentCacheFile returns the entry path for an assessment scope key.
func (l Layout) AssessmentCacheFile(scope string) string {
	return filepath.Join(l.AssessmentCacheDir(), hashKey(scope)+".json")
}

// CorruptedDir returns the quarantine directory for corrupted sessions.
func (l Layout) CorruptedDir() string {
	return filepath.Join(l.Root(), "corrupted")
}

// QuarantineDir returns the destination for a quarantined session,
// preserving its original directory name.
func (l Layout) QuarantineDir(id string) string {
	return filepath.Join(l.CorruptedDir(), id)
}

// ConfigFile returns the path of the store's configuration file.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.Root(), "config.json")
}

// ResearchDir returns the directory for a module's research documents.
func (l Layout) ResearchDir(module string) string {
	return filepath.Join(l.projectRoot, "docs", "requirements", module)
}

// ResearchFile returns the path of a module's consolidated research document.
func (l Layout) ResearchFile(module string) string {
	return filepath.Join(l.ResearchDir(module), "RESEARCH.md")
}

// ResearchTopicFile returns the path of a module's per-topic research document.
func (l Layout) ResearchTopicFile(module, topic string) string {
	return filepath.Join(l.ResearchDir(module), "RESEARCH-"+topic+".md")
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
