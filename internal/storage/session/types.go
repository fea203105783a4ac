package session

import "time"

// State is the persistent record of where a workflow run stands. The
// workflow engine owns its contents; the store persists and loads it
// verbatim, stamping UpdatedAt on every save.
type State struct {
	SessionID  string    `json:"session_id"`
	Phase      string    `json:"phase"`
	Step       string    `json:"step"`
	Module     string    `json:"module"`
	Component  string    `json:"component,omitempty"`
	Task       string    `json:"task,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsComplete bool      `json:"is_complete"`
}

// Iteration records token usage for one LLM round trip.
type Iteration struct {
	InputTokens       int  `json:"input_tokens"`
	OutputTokens      int  `json:"output_tokens"`
	TotalTokens       int  `json:"total_tokens"`
	ContextWindowSize int  `json:"context_window_size"`
	IsPremiumRequest  bool `json:"is_premium_request"`
}

// Metrics accumulates per-iteration token usage for a session. The
// iteration history is append-only; cumulative totals always equal the
// sum over Iterations, an invariant AddIteration maintains.
type Metrics struct {
	SessionID              string      `json:"session_id"`
	CumulativeInputTokens  int         `json:"cumulative_input_tokens"`
	CumulativeOutputTokens int         `json:"cumulative_output_tokens"`
	PremiumRequestCount    int         `json:"premium_request_count"`
	IterationCount         int         `json:"iteration_count"`
	Iterations             []Iteration `json:"iterations"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// NewMetrics returns an empty Metrics record for a session.
func NewMetrics(id ID) *Metrics {
	return &Metrics{SessionID: id.String()}
}

// AddIteration appends one iteration and updates the cumulative totals.
func (m *Metrics) AddIteration(it Iteration) {
	it.TotalTokens = it.InputTokens + it.OutputTokens
	m.Iterations = append(m.Iterations, it)
	m.IterationCount = len(m.Iterations)
	m.CumulativeInputTokens += it.InputTokens
	m.CumulativeOutputTokens += it.OutputTokens
	if it.IsPremiumRequest {
		m.PremiumRequestCount++
	}
}
