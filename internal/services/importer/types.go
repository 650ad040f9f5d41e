package importer

import (
	"errors"
	"fmt"
)

// Task statuses as reported by the backend. PENDING and PROCESSING are
// transient; COMPLETED and FAILED are terminal.
const (
	TaskPending    = "PENDING"
	TaskProcessing = "PROCESSING"
	TaskCompleted  = "COMPLETED"
	TaskFailed     = "FAILED"
)

// ImportTask is the read-only mirror of a server-side bulk-import job.
// The client never mutates it; each poll replaces it wholesale.
type ImportTask struct {
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	TotalItems     int    `json:"totalItems"`
	ProcessedItems int    `json:"processedItems"`
	CurrentLog     string `json:"currentLog"`
	ErrorMessage   string `json:"errorMessage"`
}

// Terminal reports whether no further status transition can occur.
func (t *ImportTask) Terminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}

// State is the importer's workflow position.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateMonitoring State = "monitoring"
	StateTerminal   State = "terminal"
)

// ErrNothingStaged rejects a submit with an empty staged list before
// any HTTP call is made.
var ErrNothingStaged = errors.New("importer: não há chunks para salvar")

// SubmissionError means the bulk-import request was rejected or never
// reached the server. The staged list is preserved for retry.
type SubmissionError struct {
	Detail string // server-provided message, empty when unavailable
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("importer: erro ao iniciar: %s", e.Detail)
	}
	return fmt.Sprintf("importer: erro ao iniciar: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// MonitoringError means a status poll failed. Polling halts and the
// user must reset to recover.
type MonitoringError struct {
	Err error
}

func (e *MonitoringError) Error() string {
	return fmt.Sprintf("importer: falha ao monitorar a importação: %v", e.Err)
}

func (e *MonitoringError) Unwrap() error { return e.Err }
