package importer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"veritas-desktop/internal/api"
	"veritas-desktop/internal/services/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend scripts the bulk-import and task-status endpoints and
// counts every request it serves.
type fakeBackend struct {
	mu            sync.Mutex
	submitStatus  int
	submitBody    string
	pollResponses []string
	pollIndex     int
	submitCount   int
	pollCount     int
	lastSubmitted []staging.StagedChunk
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/admin/chunks/bulk-import":
			f.submitCount++
			var chunks []staging.StagedChunk
			json.NewDecoder(r.Body).Decode(&chunks)
			f.lastSubmitted = chunks
			if f.submitStatus != 0 && f.submitStatus != http.StatusOK {
				w.WriteHeader(f.submitStatus)
			}
			w.Write([]byte(f.submitBody))
		case r.Method == http.MethodGet && r.URL.Path == "/admin/import-tasks/7":
			f.pollCount++
			if len(f.pollResponses) == 0 {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"message": "task store offline"}`))
				return
			}
			body := f.pollResponses[f.pollIndex]
			if f.pollIndex < len(f.pollResponses)-1 {
				f.pollIndex++
			}
			w.Write([]byte(body))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeBackend) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCount
}

func (f *fakeBackend) submits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCount
}

const stagedFile = `[
	{"chapter_number": 1, "content": "Primeiro."},
	{"chapter_number": 2, "content": "Segundo."},
	{"chapter_number": 3, "content": "   "},
	{"chapter_number": 4, "content": "Quarto."},
	{"chapter_number": 5, "content": "Quinto."}
]`

func newTestImporter(t *testing.T, backend *fakeBackend) (*Service, *staging.Engine) {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	engine := staging.NewEngine()
	service := NewService(api.NewClient(server.URL), engine)
	service.SetPollInterval(10 * time.Millisecond)
	t.Cleanup(service.Close)
	return service, engine
}

func stage(t *testing.T, engine *staging.Engine) {
	t.Helper()
	engine.SelectTarget("CFW")
	count, err := engine.StageFile([]byte(stagedFile))
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestSubmit(t *testing.T) {
	t.Run("Should reject empty staged list without an HTTP call", func(t *testing.T) {
		backend := &fakeBackend{}
		service, _ := newTestImporter(t, backend)

		_, err := service.Submit()

		assert.ErrorIs(t, err, ErrNothingStaged)
		assert.Zero(t, backend.submits(), "no request may be issued")
		assert.Equal(t, StateIdle, service.State())
	})

	t.Run("Successful submit clears staged list and starts monitoring", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody:    `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			pollResponses: []string{`{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`},
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		task, err := service.Submit()

		require.NoError(t, err)
		assert.Equal(t, int64(7), task.ID)
		assert.Equal(t, TaskPending, task.Status)
		assert.Zero(t, engine.Count(), "staged data is single-use")
		assert.Equal(t, StateMonitoring, service.State())
		assert.Len(t, backend.lastSubmitted, 4, "full staged list sent as one batch")
	})

	t.Run("Failed submit preserves staged list for retry", func(t *testing.T) {
		backend := &fakeBackend{
			submitStatus: http.StatusBadRequest,
			submitBody:   `{"message": "obra desconhecida"}`,
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()

		require.Error(t, err)
		var subErr *SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.Equal(t, "obra desconhecida", subErr.Detail)
		assert.Equal(t, 4, engine.Count(), "staged list must survive the failure")
		assert.Equal(t, StateIdle, service.State())

		// Retry re-sends the same 4 records without re-uploading.
		backend.mu.Lock()
		backend.submitStatus = http.StatusOK
		backend.submitBody = `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`
		backend.pollResponses = []string{`{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`}
		backend.mu.Unlock()

		task, err := service.Submit()
		require.NoError(t, err)
		assert.Equal(t, int64(7), task.ID)
		assert.Len(t, backend.lastSubmitted, 4)
		assert.Equal(t, 2, backend.submits())
	})

	t.Run("Second submit while a task is active is rejected", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody:    `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			pollResponses: []string{`{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`},
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()
		require.NoError(t, err)

		stage(t, engine)
		_, err = service.Submit()
		require.Error(t, err)
		assert.Equal(t, 1, backend.submits())
	})
}

func TestMonitoring(t *testing.T) {
	t.Run("Polling stops at the first terminal snapshot", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody: `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			pollResponses: []string{
				`{"id": 7, "status": "PROCESSING", "totalItems": 4, "processedItems": 2, "currentLog": "Processando capítulo 2"}`,
				`{"id": 7, "status": "COMPLETED", "totalItems": 4, "processedItems": 4}`,
			},
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return service.State() == StateTerminal
		}, time.Second, 5*time.Millisecond)

		task := service.Task()
		require.NotNil(t, task)
		assert.Equal(t, TaskCompleted, task.Status)
		assert.Equal(t, 4, task.ProcessedItems)

		// No further poll may be scheduled after the terminal snapshot.
		polls := backend.polls()
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, polls, backend.polls(), "polling must halt in a terminal state")
	})

	t.Run("Each poll replaces the snapshot wholesale", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody: `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			pollResponses: []string{
				`{"id": 7, "status": "PROCESSING", "totalItems": 4, "processedItems": 2, "currentLog": "Metade"}`,
				`{"id": 7, "status": "COMPLETED", "totalItems": 4, "processedItems": 4}`,
			},
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			task := service.Task()
			return task != nil && task.Terminal()
		}, time.Second, 5*time.Millisecond)

		task := service.Task()
		assert.Empty(t, task.CurrentLog, "stale fields must not be merged into new snapshots")
	})

	t.Run("Poll failure halts monitoring fail-stop", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody: `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			// no poll responses: every poll returns HTTP 500
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return service.Err() != nil
		}, time.Second, 5*time.Millisecond)

		var monErr *MonitoringError
		require.ErrorAs(t, service.Err(), &monErr)

		polls := backend.polls()
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, polls, backend.polls(), "no retry after a monitoring failure")
	})

	t.Run("Reset during monitoring cancels the pending timer", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody:    `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			pollResponses: []string{`{"id": 7, "status": "PROCESSING", "totalItems": 4, "processedItems": 1}`},
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()
		require.NoError(t, err)

		require.NoError(t, service.Reset())

		polls := backend.polls()
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, polls, backend.polls(), "no poll may fire after reset")
		assert.Equal(t, StateIdle, service.State())
		assert.Nil(t, service.Task())
	})
}

func TestReset(t *testing.T) {
	t.Run("Reset returns to an empty staging view with no target", func(t *testing.T) {
		backend := &fakeBackend{
			submitBody:    `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
			pollResponses: []string{`{"id": 7, "status": "COMPLETED", "totalItems": 4, "processedItems": 4}`},
		}
		service, engine := newTestImporter(t, backend)
		stage(t, engine)

		_, err := service.Submit()
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return service.State() == StateTerminal
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, service.Reset())

		assert.Equal(t, StateIdle, service.State())
		assert.Nil(t, service.Task())
		assert.NoError(t, service.Err())
		assert.Zero(t, engine.Count())
		assert.Empty(t, engine.Target(), "full reset, not resume")
	})
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		processed int
		total     int
		expected  int
	}{
		{processed: 0, total: 0, expected: 0},
		{processed: 10, total: 40, expected: 25},
		{processed: 3, total: 3, expected: 100},
		{processed: 0, total: 10, expected: 0},
		{processed: 5, total: 0, expected: 0},
		{processed: 1, total: 3, expected: 33},
		{processed: 2, total: 3, expected: 67},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.processed, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.expected, ProgressPercentage(tt.processed, tt.total))
		})
	}
}

// Full workflow: stage 5 entries (one blank), confirm, watch the task
// run to completion, reset.
func TestImportWorkflow(t *testing.T) {
	backend := &fakeBackend{
		submitBody: `{"id": 7, "status": "PENDING", "totalItems": 4, "processedItems": 0}`,
		pollResponses: []string{
			`{"id": 7, "status": "PROCESSING", "totalItems": 4, "processedItems": 2}`,
			`{"id": 7, "status": "COMPLETED", "totalItems": 4, "processedItems": 4}`,
		},
	}
	service, engine := newTestImporter(t, backend)

	engine.SelectTarget("CFW")
	count, err := engine.StageFile([]byte(stagedFile))
	require.NoError(t, err)
	require.Equal(t, 4, count, "blank-content entry dropped")

	task, err := service.Submit()
	require.NoError(t, err)
	assert.Equal(t, int64(7), task.ID)
	assert.Equal(t, TaskPending, task.Status)

	// Half-way snapshot shows 50%.
	require.Eventually(t, func() bool {
		current := service.Task()
		return current != nil && current.ProcessedItems == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, 50, ProgressPercentage(2, 4))

	require.Eventually(t, func() bool {
		return service.State() == StateTerminal
	}, time.Second, time.Millisecond)

	require.NoError(t, service.Reset())
	assert.Zero(t, engine.Count())
	assert.Empty(t, engine.Target())
}
