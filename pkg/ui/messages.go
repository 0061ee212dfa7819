package ui

// Message types for TUI updates. Poll results arrive as app.Update.

// frameMsg advances animated values.
type frameMsg struct{}

// LiveStateMsg is sent when the live feed connection changes.
type LiveStateMsg struct {
	State string
}

// mutationMsg carries the outcome of a user action.
type mutationMsg struct {
	action string
	err    error
}

// noticeExpiredMsg clears a transient notice.
type noticeExpiredMsg struct {
	id int
}
