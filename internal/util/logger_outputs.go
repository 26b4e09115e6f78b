package util

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Output represents a log output destination
type Output interface {
	io.Writer
	Close() error
}

// ConsoleOutput writes logs to console
type ConsoleOutput struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewConsoleOutput creates a new console output
func NewConsoleOutput(writer io.Writer, format LogFormat) Output {
	return &ConsoleOutput{
		writer: formatWriter(writer, format),
	}
}

// Write writes an encoded log entry to console
func (c *ConsoleOutput) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writer.Write(p)
}

// Close closes the console output
func (c *ConsoleOutput) Close() error {
	return nil
}

// FileOutput writes logs to a file
type FileOutput struct {
	file   *os.File
	writer io.Writer
	mu     sync.Mutex
}

// NewFileOutput creates a new file output
func NewFileOutput(path string, format LogFormat) (Output, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileOutput{
		file:   file,
		writer: formatWriter(file, format),
	}, nil
}

// Write writes an encoded log entry to file
func (f *FileOutput) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writer.Write(p)
}

// Close closes the file
func (f *FileOutput) Close() error {
	return f.file.Close()
}

// formatWriter wraps w so zerolog JSON events are rendered in the given format
func formatWriter(w io.Writer, format LogFormat) io.Writer {
	if format == FormatJSON {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "2006/01/02 15:04:05",
	}
}
