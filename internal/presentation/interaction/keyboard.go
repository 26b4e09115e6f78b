package interaction

import (
	"os"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// KeyboardReader handles keyboard input in raw mode
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
}

// KeyEvent represents a keyboard event
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType represents the type of key pressed
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyInterrupt
)

// NewKeyboardReader puts stdin into raw mode and starts reading keys
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := newReader()

	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}

	go kr.readInput()

	return kr, nil
}

func newReader() *KeyboardReader {
	return &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}
}

// readInput reads keyboard input in a goroutine
func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 8)

	for {
		select {
		case <-kr.stop:
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			continue
		}

		for _, event := range parseInput(buf[:n]) {
			select {
			case kr.input <- event:
			case <-kr.stop:
				return
			}
		}
	}
}

// parseInput splits one read into key events. Escape sequences for the
// arrow and page keys become a single event; unknown sequences are dropped.
func parseInput(buf []byte) []KeyEvent {
	var events []KeyEvent
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b == 3: // Ctrl+C
			events = append(events, KeyEvent{Key: 3, Type: KeyInterrupt})
		case b == '\r' || b == '\n':
			events = append(events, KeyEvent{Key: '\n', Type: KeyEnter})
		case b == 127 || b == 8:
			events = append(events, KeyEvent{Key: 127, Type: KeyBackspace})
		case b == 27:
			if i+2 < len(buf) && buf[i+1] == '[' {
				event, consumed := parseCSI(buf[i+2:])
				i += 1 + consumed
				if event != nil {
					events = append(events, *event)
				}
				continue
			}
			events = append(events, KeyEvent{Key: 27, Type: KeyEscape})
		case b < 32:
			// other control characters
		case b >= utf8.RuneSelf:
			r, size := utf8.DecodeRune(buf[i:])
			if r != utf8.RuneError {
				events = append(events, KeyEvent{Key: r, Type: KeyChar})
			}
			i += size - 1
		default:
			events = append(events, KeyEvent{Key: rune(b), Type: KeyChar})
		}
	}
	return events
}

// parseCSI decodes the bytes following ESC [ and reports how many it used
func parseCSI(seq []byte) (*KeyEvent, int) {
	switch seq[0] {
	case 'A':
		return &KeyEvent{Type: KeyUp}, 1
	case 'B':
		return &KeyEvent{Type: KeyDown}, 1
	case '5', '6':
		if len(seq) >= 2 && seq[1] == '~' {
			if seq[0] == '5' {
				return &KeyEvent{Type: KeyPageUp}, 2
			}
			return &KeyEvent{Type: KeyPageDown}, 2
		}
	}
	return nil, 1
}

// Events returns the keyboard event channel
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops the keyboard reader and restores terminal
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}

// enableRawMode disables echo and line buffering. ISIG stays on so Ctrl+C
// still raises SIGINT.
func (kr *KeyboardReader) enableRawMode() error {
	fd := int(os.Stdin.Fd())

	oldState, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	kr.oldState = oldState

	newState := *oldState
	newState.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	newState.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	newState.Cflag |= unix.CS8
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, ioctlSetTermios, &newState)
}

// disableRawMode restores the terminal state saved by enableRawMode
func (kr *KeyboardReader) disableRawMode() error {
	if kr.oldState == nil {
		return nil
	}
	return unix.IoctlSetTermios(int(os.Stdin.Fd()), ioctlSetTermios, kr.oldState)
}
