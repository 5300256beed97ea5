package websocket

import "github.com/stemsi/exstem-progress/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionRun  Action = "run"
	ActionPing Action = "ping"
)

// RunRequest asks the server to run the pipeline and stream its progress.
// Empty fields fall back to the server's configuration.
type RunRequest struct {
	Action     Action `json:"action"`
	DataDir    string `json:"data_dir,omitempty"`
	SkipHeader bool   `json:"skip_header,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventStarted    Event = "started"
	EventDiagnostic Event = "diagnostic"
	EventCompleted  Event = "completed"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

type StartedResponse struct {
	Event   Event  `json:"event"`
	DataDir string `json:"data_dir"`
}

type DiagnosticResponse struct {
	Event      Event            `json:"event"`
	Diagnostic model.Diagnostic `json:"diagnostic"`
}

type CompletedResponse struct {
	Event       Event  `json:"event"`
	RunID       string `json:"run_id"`
	Students    int    `json:"students"`
	Instructors int    `json:"instructors"`
	Majors      int    `json:"majors"`
	Diagnostics int    `json:"diagnostics"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
