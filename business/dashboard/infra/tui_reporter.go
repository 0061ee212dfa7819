package infra

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
)

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIReporter implements Reporter for the Bubble Tea TUI. Updates are sent
// to the program as app.Update messages.
type TUIReporter struct {
	mu      sync.RWMutex
	program Sender
	stopped bool
}

// NewTUIReporter creates a TUIReporter. The program may be attached later.
func NewTUIReporter(program Sender) *TUIReporter {
	return &TUIReporter{program: program}
}

// Attach sets the program updates go to.
func (r *TUIReporter) Attach(program Sender) {
	r.mu.Lock()
	r.program = program
	r.mu.Unlock()
}

// Start is a no-op: the program is owned by the caller.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// Report forwards u to the program. Updates arriving with no program
// attached, or after Stop, are dropped.
func (r *TUIReporter) Report(u app.Update) {
	r.mu.RLock()
	program, stopped := r.program, r.stopped
	r.mu.RUnlock()

	if program == nil || stopped {
		return
	}
	program.Send(u)
}

// Stop detaches from the program.
func (r *TUIReporter) Stop() error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	return nil
}
