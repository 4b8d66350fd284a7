package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	// Overlay message display duration
	overlayMessageDuration = 2 * time.Second
)

// RenderState provides read-only access to game state for the renderer
type RenderState interface {
	IsFullscreen() bool

	// Rendering data
	GetPageImage() *ebiten.Image
	IsWebtoonPage() bool
	GetScrollOffset() int

	// UI state
	IsShowingInfo() bool
	GetOverlayMessage() string
	GetOverlayMessageTime() time.Time

	// Display data
	GetCurrentIndex() int
	GetTotalPagesCount() int
	GetCurrentPageName() string
	GetFontSize() float64
}

// RenderStateSnapshot captures the parts of render state that can change
// without key input
type RenderStateSnapshot struct {
	// Overlay message state (auto-expires after 2 seconds)
	OverlayMessage     string
	OverlayMessageTime time.Time

	// Window dimensions for resize detection
	WindowWidth  int
	WindowHeight int

	// Wheel input moves these
	PageIndex    int
	ScrollOffset int
}

// NewRenderStateSnapshot creates a lightweight snapshot of non-key-input state
func NewRenderStateSnapshot(state RenderState, windowWidth, windowHeight int) *RenderStateSnapshot {
	return &RenderStateSnapshot{
		OverlayMessage:     state.GetOverlayMessage(),
		OverlayMessageTime: state.GetOverlayMessageTime(),
		WindowWidth:        windowWidth,
		WindowHeight:       windowHeight,
		PageIndex:          state.GetCurrentIndex(),
		ScrollOffset:       state.GetScrollOffset(),
	}
}

// Equals checks if two snapshots are equal
func (s *RenderStateSnapshot) Equals(other *RenderStateSnapshot) bool {
	if other == nil {
		return false
	}

	isOverlayActive := func(message string, messageTime time.Time) bool {
		return message != "" && time.Since(messageTime) < overlayMessageDuration
	}

	// Compare overlay states semantically rather than exact time values
	overlayEqual := func() bool {
		sActive := isOverlayActive(s.OverlayMessage, s.OverlayMessageTime)
		otherActive := isOverlayActive(other.OverlayMessage, other.OverlayMessageTime)

		// Both inactive: same message means no transition happened
		if !sActive && !otherActive {
			return s.OverlayMessage == other.OverlayMessage
		}

		if sActive && otherActive {
			return s.OverlayMessage == other.OverlayMessage &&
				s.OverlayMessageTime == other.OverlayMessageTime
		}

		return false
	}

	return overlayEqual() &&
		s.WindowWidth == other.WindowWidth &&
		s.WindowHeight == other.WindowHeight &&
		s.PageIndex == other.PageIndex &&
		s.ScrollOffset == other.ScrollOffset
}

// InputActions provides action methods for the input handler
type InputActions interface {
	// Application control
	Exit()

	// Display toggles
	ToggleInfo()
	ToggleWebtoon()
	ToggleFullscreen()

	// Navigation
	NavigateNext()
	NavigatePrevious()
	JumpToPage(page int)
	ScrollWheel(deltaY float64)

	// Archives
	OpenNextArchive()
	OpenPreviousArchive()
	CycleSortMethod()

	// Messages
	ShowOverlayMessage(message string)

	// Common data access
	GetCurrentIndex() int
	GetTotalPagesCount() int
}
