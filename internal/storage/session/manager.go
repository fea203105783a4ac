package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/storage/paths"
)

// InitialPhase is the phase a freshly created session starts in.
const InitialPhase = "requirements"

// Manager persists session identity, state, and metrics under the store's
// sessions directory. It assumes single-process sequential use: counter
// allocation and the latest pointer are read-modify-write sequences with
// no cross-process isolation.
type Manager struct {
	fs     fsys.FS
	layout paths.Layout
	log    *logging.Logger
	now    func() time.Time
}

// NewManager creates a session manager over the given filesystem and layout.
func NewManager(fs fsys.FS, layout paths.Layout, log *logging.Logger) *Manager {
	return &Manager{
		fs:     fs,
		layout: layout,
		log:    log,
		now:    time.Now,
	}
}

// Create allocates the next session for a module: it normalizes the
// module name, picks the lowest unused counter for the module and
// today's date, creates the session directory, writes an initial state
// record, and points the latest pointer at the new session.
func (m *Manager) Create(ctx context.Context, module string) (*State, error) {
	now := m.now().UTC()

	counter, err := m.nextCounter(ctx, NormalizeModule(module), now)
	if err != nil {
		return nil, err
	}
	id, err := NewID(module, now, counter)
	if err != nil {
		return nil, storage.NewError("invalid session identity", err)
	}

	if err := m.fs.MkdirAll(ctx, m.layout.SessionDir(id.String())); err != nil {
		if storage.IsContextError(err) {
			return nil, err
		}
		return nil, storage.NewError("failed to create session directory", err).WithPath(m.layout.SessionDir(id.String()))
	}

	state := &State{
		SessionID: id.String(),
		Phase:     InitialPhase,
		Module:    id.Module(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.SaveState(ctx, state); err != nil {
		return nil, err
	}
	if err := m.SetLatest(ctx, id); err != nil {
		return nil, err
	}

	m.log.Info("session created", "session_id", id.String(), "module", id.Module())
	return state, nil
}

// nextCounter scans existing sessions for the module and date and
// returns the highest counter plus one, starting at 1.
func (m *Manager) nextCounter(ctx context.Context, module string, date time.Time) (int, error) {
	ids, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	day := truncateToDay(date)
	next := 1
	for _, id := range ids {
		if id.Module() == module && id.Date().Equal(day) && id.Counter() >= next {
			next = id.Counter() + 1
		}
	}
	return next, nil
}

// SaveState atomically persists a session's state record, stamping
// UpdatedAt. A failed save is lost workflow progress, so failures are
// never swallowed here.
func (m *Manager) SaveState(ctx context.Context, state *State) error {
	state.UpdatedAt = m.now().UTC()
	return m.saveRecord(ctx, m.layout.StateFile(state.SessionID), state)
}

// SaveMetrics atomically persists a session's metrics record, stamping
// UpdatedAt.
func (m *Manager) SaveMetrics(ctx context.Context, metrics *Metrics) error {
	metrics.UpdatedAt = m.now().UTC()
	return m.saveRecord(ctx, m.layout.MetricsFile(metrics.SessionID), metrics)
}

func (m *Manager) saveRecord(ctx context.Context, path string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return storage.NewError("failed to serialize record", err).WithPath(path)
	}
	if err := m.fs.MkdirAll(ctx, filepath.Dir(path)); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to create session directory", err).WithPath(path)
	}
	return storage.WriteAtomic(ctx, m.fs, path, data)
}

// LoadState returns a session's state record. A missing file reports
// storage.ErrNotFound; a file that exists but does not parse reports a
// StorageError, because acting on corrupted workflow state must halt.
func (m *Manager) LoadState(ctx context.Context, id ID) (*State, error) {
	var state State
	if err := m.loadRecord(ctx, m.layout.StateFile(id.String()), "session state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// LoadMetrics returns a session's metrics record, with the same absence
// and corruption semantics as LoadState.
func (m *Manager) LoadMetrics(ctx context.Context, id ID) (*Metrics, error) {
	var metrics Metrics
	if err := m.loadRecord(ctx, m.layout.MetricsFile(id.String()), "session metrics", &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (m *Manager) loadRecord(ctx context.Context, path, kind string, out any) error {
	data, err := m.fs.ReadFile(ctx, path)
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		if storage.Is(err, fsys.ErrNotExist) {
			return fmt.Errorf("%s: %w", kind, storage.ErrNotFound)
		}
		return storage.NewError("failed to read "+kind, err).WithPath(path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return storage.NewError("corrupted "+kind, err).WithPath(path)
	}
	return nil
}

// SetLatest points the latest pointer at the given session.
func (m *Manager) SetLatest(ctx context.Context, id ID) error {
	link := m.layout.LatestLink()
	if err := m.fs.Symlink(ctx, m.layout.SessionDir(id.String()), link); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to update latest pointer", err).WithPath(link)
	}
	return nil
}

// GetLatest returns the session the latest pointer refers to. An absent
// pointer reports storage.ErrNotFound. The pointer is read on demand,
// never cached across calls.
func (m *Manager) GetLatest(ctx context.Context) (ID, error) {
	target, err := m.fs.Readlink(ctx, m.layout.LatestLink())
	if err != nil {
		if storage.IsContextError(err) {
			return ID{}, err
		}
		if storage.Is(err, fsys.ErrNotExist) {
			return ID{}, fmt.Errorf("latest session: %w", storage.ErrNotFound)
		}
		return ID{}, storage.NewError("failed to read latest pointer", err).WithPath(m.layout.LatestLink())
	}

	id, err := Parse(filepath.Base(target))
	if err != nil {
		return ID{}, storage.NewError("latest pointer names an invalid session", err).WithPath(m.layout.LatestLink())
	}
	return id, nil
}

// List enumerates all sessions, oldest first by (date, counter, module).
// Directory entries whose names do not parse as session IDs are skipped.
func (m *Manager) List(ctx context.Context) ([]ID, error) {
	names, err := m.fs.List(ctx, m.layout.SessionsDir(), "")
	if err != nil {
		if storage.IsContextError(err) {
			return nil, err
		}
		return nil, storage.NewError("failed to list sessions", err).WithPath(m.layout.SessionsDir())
	}

	ids := make([]ID, 0, len(names))
	for _, name := range names {
		id, err := Parse(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids, nil
}

// Prune deletes the oldest sessions until at most retain remain and
// returns the number removed. Retention must be positive.
func (m *Manager) Prune(ctx context.Context, retain int) (int, error) {
	if retain <= 0 {
		return 0, storage.NewError(fmt.Sprintf("retention must be positive, got %d", retain), nil)
	}

	ids, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) <= retain {
		return 0, nil
	}

	removed := 0
	for _, id := range ids[:len(ids)-retain] {
		if err := m.Delete(ctx, id); err != nil {
			if storage.Is(err, storage.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	m.log.Info("pruned sessions", "removed", removed, "retained", retain)
	return removed, nil
}

// Quarantine moves a corrupted session's directory under corrupted/ for
// manual inspection, preserving its name. Data is never deleted here.
// Quarantining a session that no longer exists is a no-op.
func (m *Manager) Quarantine(ctx context.Context, id ID) error {
	src := m.layout.SessionDir(id.String())
	exists, err := m.fs.Exists(ctx, src)
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to check session directory", err).WithPath(src)
	}
	if !exists {
		return nil
	}

	if err := m.fs.MkdirAll(ctx, m.layout.CorruptedDir()); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to create quarantine directory", err).WithPath(m.layout.CorruptedDir())
	}

	dst := m.layout.QuarantineDir(id.String())
	if taken, err := m.fs.Exists(ctx, dst); err == nil && taken {
		// A session with this ID was quarantined before; keep both.
		dst = fmt.Sprintf("%s.%d", dst, m.now().UTC().Unix())
	}
	if err := m.fs.Move(ctx, src, dst); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to quarantine session", err).WithPath(src)
	}

	m.clearLatestIfTarget(ctx, id)
	m.log.Warn("session quarantined", "session_id", id.String(), "quarantine_path", dst)
	return nil
}

// Delete removes a session's directory. Deleting a session that does not
// exist reports storage.ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id ID) error {
	dir := m.layout.SessionDir(id.String())
	exists, err := m.fs.Exists(ctx, dir)
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to check session directory", err).WithPath(dir)
	}
	if !exists {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}

	if err := m.fs.RemoveAll(ctx, dir); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to delete session", err).WithPath(dir)
	}

	m.clearLatestIfTarget(ctx, id)
	return nil
}

// clearLatestIfTarget removes the latest pointer when it refers to a
// session that was just removed. Best-effort cleanup; failures are
// logged, not raised.
func (m *Manager) clearLatestIfTarget(ctx context.Context, id ID) {
	latest, err := m.GetLatest(ctx)
	if err != nil || latest.Compare(id) != 0 {
		return
	}
	if err := m.fs.Remove(ctx, m.layout.LatestLink()); err != nil {
		m.log.Debug("failed to clear latest pointer", "error", err)
	}
}
