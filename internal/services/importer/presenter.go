package importer

import "fmt"

// View is the pure presentation of a task snapshot for the progress
// screen. Building it has no side effects.
type View struct {
	Title        string `json:"title"`
	ShowProgress bool   `json:"show_progress"`
	Percentage   int    `json:"percentage"`
	CountLabel   string `json:"count_label"`
	LogLine      string `json:"log_line"`
	ShowError    bool   `json:"show_error"`
	ErrorMessage string `json:"error_message"`
	CanReset     bool   `json:"can_reset"`
}

// Present derives the progress view from a task snapshot. The progress
// bar appears only while PROCESSING or COMPLETED, the error panel only
// when FAILED and the reset affordance only in a terminal state.
func Present(task *ImportTask) View {
	if task == nil {
		return View{Title: "Carregando status da tarefa..."}
	}

	title := "Importação em Andamento..."
	switch task.Status {
	case TaskPending:
		title = "Tarefa na fila, aguardando início..."
	case TaskCompleted:
		title = "Importação Concluída!"
	case TaskFailed:
		title = "A Importação Falhou"
	}

	view := View{
		Title:    title,
		CanReset: task.Terminal(),
	}

	if task.Status == TaskProcessing || task.Status == TaskCompleted {
		view.ShowProgress = true
		view.Percentage = ProgressPercentage(task.ProcessedItems, task.TotalItems)
		view.CountLabel = fmt.Sprintf("%d / %d Chunks", task.ProcessedItems, task.TotalItems)
		view.LogLine = task.CurrentLog
	}

	if task.Status == TaskFailed {
		view.ShowError = true
		view.ErrorMessage = task.ErrorMessage
	}

	return view
}
