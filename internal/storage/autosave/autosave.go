// Package autosave decides when workflow state is persisted and how save
// failures are handled. It is a thin policy layer over the session
// manager: a logical hiccup never aborts the workflow, but a critical
// failure (disk full, permissions) always does, because continuing would
// only accumulate more lost work.
package autosave

import (
	"context"

	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/storage/session"
)

// Trigger names the workflow event that caused an auto-save.
type Trigger string

// Auto-save triggers, invoked by the workflow engine.
const (
	TriggerStepComplete      Trigger = "step_complete"
	TriggerTaskComplete      Trigger = "task_complete"
	TriggerTaskFailed        Trigger = "task_failed"
	TriggerPhaseTransition   Trigger = "phase_transition"
	TriggerComponentComplete Trigger = "component_complete"
	TriggerUserPause         Trigger = "user_pause"
)

// Service saves session state and metrics on workflow events.
type Service struct {
	sessions *session.Manager
	log      *logging.Logger
}

// NewService creates an auto-save service over a session manager.
func NewService(sessions *session.Manager, log *logging.Logger) *Service {
	return &Service{sessions: sessions, log: log}
}

// Save persists the session state, and the metrics when supplied.
// Non-critical storage failures are logged and swallowed; critical
// failures and context cancellation propagate.
func (s *Service) Save(ctx context.Context, trigger Trigger, state *session.State, metrics *session.Metrics) error {
	if err := s.sessions.SaveState(ctx, state); err != nil {
		if handled := s.handle(err, trigger, state.SessionID, "state"); !handled {
			return err
		}
	}

	if metrics != nil {
		if err := s.sessions.SaveMetrics(ctx, metrics); err != nil {
			if handled := s.handle(err, trigger, state.SessionID, "metrics"); !handled {
				return err
			}
		}
	}

	s.log.Debug("auto-save complete", "trigger", string(trigger), "session_id", state.SessionID)
	return nil
}

// handle reports whether the error was absorbed. Context errors and
// critical storage failures are never absorbed.
func (s *Service) handle(err error, trigger Trigger, sessionID, record string) bool {
	if storage.IsContextError(err) || storage.IsCritical(err) {
		return false
	}
	s.log.Warn("auto-save failed, continuing",
		"trigger", string(trigger),
		"session_id", sessionID,
		"record", record,
		"error", err)
	return true
}
