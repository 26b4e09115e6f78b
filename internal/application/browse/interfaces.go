package browse

import (
	"github.com/penwyp/go-herdbook/internal/presentation/display"
	"github.com/penwyp/go-herdbook/internal/presentation/interaction"
)

// DisplayController handles terminal display operations
type DisplayController interface {
	// EnterAlternateScreen switches to alternate terminal screen
	EnterAlternateScreen()
	// ExitAlternateScreen returns to normal terminal screen
	ExitAlternateScreen()
	// Render draws one frame
	Render(s display.Screen)
}

// InputHandler processes keyboard events
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}

// FileMonitor watches the local database for changes
type FileMonitor interface {
	// Changes is signalled after a debounced burst of writes
	Changes() <-chan struct{}
	// Close stops monitoring and cleans up resources
	Close() error
}

var (
	_ DisplayController = (*display.TerminalDisplay)(nil)
	_ InputHandler      = (*interaction.KeyboardReader)(nil)
	_ FileMonitor       = (*FileWatcher)(nil)
)
