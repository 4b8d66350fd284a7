package main

// ActionExecutor maps configured action names onto InputActions calls
type ActionExecutor struct{}

var globalActionExecutor = NewActionExecutor()

// NewActionExecutor creates a new ActionExecutor instance
func NewActionExecutor() *ActionExecutor {
	return &ActionExecutor{}
}

// ExecuteAction executes the given action using the InputActions interface.
// It returns false for unknown actions.
func (ae *ActionExecutor) ExecuteAction(action string, inputActions InputActions) bool {
	switch action {
	case "exit":
		inputActions.Exit()
	case "toggle_info":
		inputActions.ToggleInfo()
	case "toggle_webtoon":
		inputActions.ToggleWebtoon()
	case "fullscreen":
		inputActions.ToggleFullscreen()
	case "next":
		inputActions.NavigateNext()
	case "previous":
		inputActions.NavigatePrevious()
	case "jump_first":
		inputActions.JumpToPage(1)
	case "jump_last":
		totalPages := inputActions.GetTotalPagesCount()
		if totalPages > 0 {
			inputActions.JumpToPage(totalPages)
		}
	case "next_archive":
		inputActions.OpenNextArchive()
	case "previous_archive":
		inputActions.OpenPreviousArchive()
	case "cycle_sort":
		inputActions.CycleSortMethod()
	default:
		return false
	}

	return true
}
