package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresent(t *testing.T) {
	t.Run("Nil task shows loading copy", func(t *testing.T) {
		view := Present(nil)
		assert.Equal(t, "Carregando status da tarefa...", view.Title)
		assert.False(t, view.ShowProgress)
		assert.False(t, view.CanReset)
	})

	t.Run("Pending task has no progress bar", func(t *testing.T) {
		view := Present(&ImportTask{Status: TaskPending, TotalItems: 4})
		assert.Equal(t, "Tarefa na fila, aguardando início...", view.Title)
		assert.False(t, view.ShowProgress)
		assert.False(t, view.ShowError)
		assert.False(t, view.CanReset)
	})

	t.Run("Processing task shows progress", func(t *testing.T) {
		view := Present(&ImportTask{
			Status:         TaskProcessing,
			TotalItems:     4,
			ProcessedItems: 2,
			CurrentLog:     "Processando capítulo 2",
		})
		assert.Equal(t, "Importação em Andamento...", view.Title)
		assert.True(t, view.ShowProgress)
		assert.Equal(t, 50, view.Percentage)
		assert.Equal(t, "2 / 4 Chunks", view.CountLabel)
		assert.Equal(t, "Processando capítulo 2", view.LogLine)
		assert.False(t, view.CanReset)
	})

	t.Run("Completed task keeps the bar and offers reset", func(t *testing.T) {
		view := Present(&ImportTask{Status: TaskCompleted, TotalItems: 4, ProcessedItems: 4})
		assert.Equal(t, "Importação Concluída!", view.Title)
		assert.True(t, view.ShowProgress)
		assert.Equal(t, 100, view.Percentage)
		assert.True(t, view.CanReset)
		assert.False(t, view.ShowError)
	})

	t.Run("Failed task shows only the error panel and reset", func(t *testing.T) {
		view := Present(&ImportTask{Status: TaskFailed, ErrorMessage: "constraint violation"})
		assert.Equal(t, "A Importação Falhou", view.Title)
		assert.False(t, view.ShowProgress)
		assert.True(t, view.ShowError)
		assert.Equal(t, "constraint violation", view.ErrorMessage)
		assert.True(t, view.CanReset)
	})

	t.Run("Zero totals never divide", func(t *testing.T) {
		view := Present(&ImportTask{Status: TaskProcessing, TotalItems: 0, ProcessedItems: 0})
		assert.Zero(t, view.Percentage)
	})
}
