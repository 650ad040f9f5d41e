package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"veritas-desktop/internal/api"
	"veritas-desktop/internal/models"
	"veritas-desktop/internal/services/staging"

	"gorm.io/gorm"
)

const defaultPollInterval = 3 * time.Second

// Service submits staged chunks as one bulk-import job and monitors the
// resulting server task until a terminal state.
//
// Workflow: Idle -> Submitting -> Monitoring -> Terminal -> (reset) Idle.
// A submission failure returns to Idle with the staged list preserved.
type Service struct {
	client       *api.Client
	engine       *staging.Engine
	db           *gorm.DB
	pollInterval time.Duration
	events       func(event string, payload interface{})

	mu          sync.Mutex
	state       State
	task        *ImportTask
	workAcronym string
	monitorStop chan struct{}
	monitorDone chan struct{}
	lastErr     error
}

// NewService creates an importer in the Idle state.
func NewService(client *api.Client, engine *staging.Engine) *Service {
	return &Service{
		client:       client,
		engine:       engine,
		state:        StateIdle,
		pollInterval: defaultPollInterval,
	}
}

// SetDatabase enables mirroring of observed task snapshots into the
// local history table. Optional.
func (s *Service) SetDatabase(db *gorm.DB) {
	s.db = db
}

// SetEvents registers the frontend event emitter. Optional.
func (s *Service) SetEvents(fn func(event string, payload interface{})) {
	s.events = fn
}

// SetPollInterval overrides the 3s polling interval.
func (s *Service) SetPollInterval(interval time.Duration) {
	s.pollInterval = interval
}

// State returns the current workflow state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Task returns a copy of the last observed task snapshot, nil if none.
func (s *Service) Task() *ImportTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil {
		return nil
	}
	task := *s.task
	return &task
}

// Err returns the last submission or monitoring error, nil if none.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Submit sends the full staged list as one bulk-import request and, on
// success, clears the staged list and starts monitoring the returned
// task. Guarded so only one submission can be in flight: callers get an
// error instead of a duplicate request.
func (s *Service) Submit() (*ImportTask, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, fmt.Errorf("importer: submission not allowed in state %q", s.state)
	}
	staged := s.engine.Staged()
	if len(staged) == 0 {
		s.mu.Unlock()
		return nil, ErrNothingStaged
	}
	workAcronym := s.engine.Target()
	s.state = StateSubmitting
	s.lastErr = nil
	s.mu.Unlock()

	log.Printf("Submitting bulk import of %d chunks for work %s", len(staged), workAcronym)

	resp, err := s.client.Post("/admin/chunks/bulk-import", staged)
	if err != nil {
		// Staged list stays intact so the user can retry without
		// re-uploading the file.
		subErr := &SubmissionError{Detail: serverDetail(err), Err: err}
		s.mu.Lock()
		s.state = StateIdle
		s.lastErr = subErr
		s.mu.Unlock()
		return nil, subErr
	}

	var task ImportTask
	if err := json.Unmarshal(resp.Body(), &task); err != nil {
		subErr := &SubmissionError{Err: fmt.Errorf("unexpected response: %w", err)}
		s.mu.Lock()
		s.state = StateIdle
		s.lastErr = subErr
		s.mu.Unlock()
		return nil, subErr
	}

	// Staged data is single-use: once the server accepted the batch it
	// must not be resubmittable without re-staging.
	s.engine.Clear()

	stop := make(chan struct{})
	done := make(chan struct{})

	s.mu.Lock()
	s.task = &task
	s.workAcronym = workAcronym
	s.state = StateMonitoring
	s.monitorStop = stop
	s.monitorDone = done
	s.mu.Unlock()

	s.record(&task, workAcronym)
	s.emit(&task)

	log.Printf("Import task %d accepted with status %s, monitoring...", task.ID, task.Status)
	go s.monitor(task.ID, stop, done)

	snapshot := task
	return &snapshot, nil
}

// monitor polls the task status on a fixed interval until a terminal
// state or a poll failure. Polls are strictly sequential; a slow poll
// simply delays the next tick.
func (s *Service) monitor(taskID int64, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			task, err := s.fetchTask(taskID)
			if err != nil {
				// Fail-stop: better no progress than stale progress.
				monErr := &MonitoringError{Err: err}
				if s.applyError(stop, monErr) {
					log.Printf("Task %d monitoring halted: %v", taskID, err)
					s.emitError(monErr)
				}
				return
			}

			terminal, current := s.applySnapshot(stop, task)
			if !current {
				return
			}
			if terminal {
				log.Printf("Task %d reached terminal status %s", taskID, task.Status)
				return
			}
		}
	}
}

func (s *Service) fetchTask(taskID int64) (*ImportTask, error) {
	resp, err := s.client.Get(fmt.Sprintf("/admin/import-tasks/%d", taskID), nil)
	if err != nil {
		return nil, err
	}
	var task ImportTask
	if err := json.Unmarshal(resp.Body(), &task); err != nil {
		return nil, fmt.Errorf("unexpected task payload: %w", err)
	}
	return &task, nil
}

// applySnapshot installs a polled snapshot unless this monitor has been
// superseded by a reset. Returns (terminal, still current).
func (s *Service) applySnapshot(stop chan struct{}, task *ImportTask) (bool, bool) {
	s.mu.Lock()
	if s.monitorStop != stop {
		s.mu.Unlock()
		return false, false
	}
	s.task = task
	terminal := task.Terminal()
	if terminal {
		s.state = StateTerminal
	}
	workAcronym := s.workAcronym
	s.mu.Unlock()

	s.record(task, workAcronym)
	s.emit(task)
	return terminal, true
}

// applyError stores a monitoring failure unless superseded by a reset.
func (s *Service) applyError(stop chan struct{}, monErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitorStop != stop {
		return false
	}
	s.lastErr = monErr
	return true
}

// Reset cancels any pending monitor and returns to a fresh staging view
// with no target selected. Not allowed while a submission is in flight.
func (s *Service) Reset() error {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return errors.New("importer: cannot reset while a submission is in flight")
	}
	stop := s.monitorStop
	s.monitorStop = nil
	s.monitorDone = nil
	s.task = nil
	s.lastErr = nil
	s.workAcronym = ""
	s.state = StateIdle
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	s.engine.Reset()
	return nil
}

// Close cancels the monitor on app shutdown and waits for it to exit so
// no poll fires after teardown.
func (s *Service) Close() {
	s.mu.Lock()
	stop := s.monitorStop
	done := s.monitorDone
	s.monitorStop = nil
	s.monitorDone = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		<-done
	}
}

// record mirrors a task snapshot into the local history table.
func (s *Service) record(task *ImportTask, workAcronym string) {
	if s.db == nil {
		return
	}

	var record models.ImportTaskRecord
	isNew := false
	err := s.db.Where("id = ?", task.ID).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("WARNING: Failed to load task record %d: %v", task.ID, err)
			return
		}
		isNew = true
		record = models.ImportTaskRecord{
			ID:          task.ID,
			WorkAcronym: workAcronym,
			SubmittedAt: time.Now(),
		}
	}

	record.Status = task.Status
	record.TotalItems = task.TotalItems
	record.ProcessedItems = task.ProcessedItems
	record.CurrentLog = task.CurrentLog
	record.ErrorMessage = task.ErrorMessage
	if task.Terminal() && record.CompletedAt == nil {
		now := time.Now()
		record.CompletedAt = &now
	}

	if isNew {
		err = s.db.Create(&record).Error
	} else {
		err = s.db.Save(&record).Error
	}
	if err != nil {
		log.Printf("WARNING: Failed to persist task record %d: %v", task.ID, err)
	}
}

func (s *Service) emit(task *ImportTask) {
	if s.events != nil {
		s.events("import:task", task)
	}
}

func (s *Service) emitError(err error) {
	if s.events != nil {
		s.events("import:error", err.Error())
	}
}

// serverDetail extracts the backend's message from a gateway error.
func serverDetail(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}

// ProgressPercentage derives the displayed completion percentage. The
// server never sends it; totalItems can legitimately be zero.
func ProgressPercentage(processedItems, totalItems int) int {
	if totalItems <= 0 || processedItems <= 0 {
		return 0
	}
	return int(math.Round(float64(processedItems) / float64(totalItems) * 100))
}
