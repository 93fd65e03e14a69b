package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// Transition is one recorded state change of a run
type Transition struct {
	From contracts.RunState `json:"from"`
	To   contracts.RunState `json:"to"`
	At   time.Time          `json:"at"`
}

// RunReport summarizes one market run
type RunReport struct {
	RunID       string             `json:"run_id"`
	Market      string             `json:"market"`
	ScanDate    string             `json:"scan_date"`
	State       contracts.RunState `json:"state"`
	Transitions []Transition       `json:"transitions"`

	TotalTickers int                       `json:"total_tickers"`
	Scanned      int                       `json:"scanned"`
	Qualifying   int                       `json:"qualifying"`
	Skipped      []contracts.SkippedTicker `json:"skipped"`
	TopPicks     int                       `json:"top_picks"`

	Err       error         `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Succeeded reports whether the run reached Done
func (r *RunReport) Succeeded() bool {
	return r.State == contracts.StateDone
}

// SkippedCount returns the number of tickers left out of the result file
func (r *RunReport) SkippedCount() int {
	return len(r.Skipped)
}

// transition moves the run to next; invalid moves are programming errors
func (r *RunReport) transition(next contracts.RunState, at time.Time) {
	if !r.State.CanTransition(next) {
		panic(fmt.Sprintf("scan: invalid transition %s → %s", r.State, next))
	}
	r.Transitions = append(r.Transitions, Transition{From: r.State, To: next, At: at})
	r.State = next
}

// BatchReport is the outcome of RunAll
type BatchReport struct {
	Reports []*RunReport `json:"reports"`
	Failed  []string     `json:"failed"`
}

// OK reports whether every market run succeeded
func (b *BatchReport) OK() bool {
	return len(b.Failed) == 0
}

// Err summarizes failed markets, nil when all succeeded
func (b *BatchReport) Err() error {
	if b.OK() {
		return nil
	}
	return fmt.Errorf("%d market(s) failed: %s", len(b.Failed), strings.Join(b.Failed, ", "))
}
