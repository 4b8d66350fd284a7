package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"comicflux/internal/config"
)

// InputHandler handles keyboard and wheel input processing
type InputHandler struct {
	inputActions      InputActions
	keybindingManager *KeybindingManager
	actions           []string
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, keybindingManager *KeybindingManager) *InputHandler {
	return &InputHandler{
		inputActions:      inputActions,
		keybindingManager: keybindingManager,
		actions:           config.ActionNames(),
	}
}

// idleActions still work with nothing open
var idleActions = []string{"exit", "next_archive", "previous_archive"}

// HandleInput processes all input for the current frame
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput() bool {
	if h.inputActions.GetTotalPagesCount() == 0 {
		inputProcessed := false
		for _, action := range idleActions {
			inputProcessed = h.keybindingManager.ExecuteAction(action, h.inputActions) || inputProcessed
		}
		return inputProcessed
	}

	inputProcessed := false
	for _, action := range h.actions {
		inputProcessed = h.keybindingManager.ExecuteAction(action, h.inputActions) || inputProcessed
	}
	inputProcessed = h.handleWheel() || inputProcessed

	return inputProcessed
}

func (h *InputHandler) handleWheel() bool {
	_, wheelY := ebiten.Wheel()
	if wheelY == 0 {
		return false
	}
	h.inputActions.ScrollWheel(wheelY)
	return true
}
