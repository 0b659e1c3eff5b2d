package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LineCapWriter appends to a log file and cuts it back to the newest maxLines
// lines once it has grown to twice that many.
type LineCapWriter struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxLines int

	ring    []string // newest lines, oldest at head once full
	head    int
	size    int
	written int // lines in the file since the last trim
}

// NewLineCapWriter wraps an open log file. A maxLines below one disables the cap.
func NewLineCapWriter(file *os.File, path string, maxLines int) *LineCapWriter {
	w := &LineCapWriter{file: file, path: path, maxLines: maxLines}
	if maxLines > 0 {
		w.ring = make([]string, maxLines)
	}
	return w
}

// Write implements io.Writer.
func (w *LineCapWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil || w.maxLines < 1 {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.remember(line)
		}
	}

	if w.written >= w.maxLines*2 {
		if err := w.trim(); err != nil {
			return n, fmt.Errorf("failed to trim log file: %w", err)
		}
	}

	return n, nil
}

// Sync flushes the underlying file.
func (w *LineCapWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the underlying file.
func (w *LineCapWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

func (w *LineCapWriter) remember(line string) {
	w.ring[w.head] = line
	w.head = (w.head + 1) % w.maxLines
	w.size = min(w.size+1, w.maxLines)
	w.written++
}

// lines returns the remembered lines oldest first.
func (w *LineCapWriter) lines() []string {
	start := (w.head - w.size + w.maxLines) % w.maxLines
	out := make([]string, 0, w.size)
	for i := range w.size {
		out = append(out, w.ring[(start+i)%w.maxLines])
	}
	return out
}

// trim swaps the file for one holding only the remembered lines.
func (w *LineCapWriter) trim() error {
	temp, err := os.CreateTemp(filepath.Dir(w.path), "trim-*.log")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	content := strings.Join(w.lines(), "\n") + "\n"
	if _, err := temp.WriteString(content); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()
	if err := os.Rename(tempPath, w.path); err != nil {
		os.Remove(tempPath)
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file
	w.written = w.size
	return nil
}
