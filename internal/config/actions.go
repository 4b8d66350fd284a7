package config

// ActionDefinition defines an action with its default keybindings and description
type ActionDefinition struct {
	Name        string
	Keys        []string
	Description string
}

// actionDefinitions contains all action definitions with default keybindings and descriptions
var actionDefinitions = []ActionDefinition{
	{"exit", []string{"Escape", "KeyQ"}, "Quit application"},
	{"next", []string{"ArrowRight", "Space", "KeyN", "PageDown"}, "Next page"},
	{"previous", []string{"ArrowLeft", "Backspace", "KeyP", "PageUp"}, "Previous page"},
	{"jump_first", []string{"Home", "Shift+Comma"}, "Jump to first page"},
	{"jump_last", []string{"End", "Shift+Period"}, "Jump to last page"},
	{"next_archive", []string{"Shift+PageDown", "Ctrl+ArrowRight"}, "Open next archive in directory"},
	{"previous_archive", []string{"Shift+PageUp", "Ctrl+ArrowLeft"}, "Open previous archive in directory"},
	{"cycle_sort", []string{"KeyS"}, "Cycle page sort method"},
	{"toggle_webtoon", []string{"KeyW"}, "Toggle webtoon (continuous scroll) mode"},
	{"toggle_info", []string{"KeyI"}, "Show/hide page info"},
	{"fullscreen", []string{"Enter", "KeyF"}, "Toggle fullscreen"},
}

// ActionNames returns all action names in definition order
func ActionNames() []string {
	names := make([]string, len(actionDefinitions))
	for i, action := range actionDefinitions {
		names[i] = action.Name
	}
	return names
}

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keys := make([]string, len(action.Keys))
		copy(keys, action.Keys)
		keybindings[action.Name] = keys
	}
	return keybindings
}
