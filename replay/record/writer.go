// Package record provides the append-only compressed line sink used
// for trace output and for recording replay files. Writes are handed
// to a dedicated goroutine, so producers never block on disk or on the
// gzip stream.
package record

import (
	"compress/gzip"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Writer appends newline-terminated text to a gzip-compressed file.
// It is safe for concurrent use; ordering between concurrent writers
// is whatever the channel delivers.
type Writer struct {
	path  string
	lines chan string
	done  chan struct{}

	mu  sync.Mutex
	err error
}

// NewWriter opens (truncating) the sink file and starts its service
// goroutine. An empty path picks a timestamped default in the working
// directory, matching the recorder's replay naming scheme.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		path = "replay_" + time.Now().Format("0102150405") + ".rpy"
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log sink %s: %w", path, err)
	}
	w := &Writer{
		path:  path,
		lines: make(chan string, 256),
		done:  make(chan struct{}),
	}
	go w.run(f)
	return w, nil
}

// Path returns the sink's file path.
func (w *Writer) Path() string {
	return w.path
}

// Write queues one line for appending. The trailing newline is added
// by the sink.
func (w *Writer) Write(line string) {
	w.lines <- line
}

// Close flushes and closes the underlying file after all queued lines
// are written, and returns the first error the sink encountered.
func (w *Writer) Close() error {
	close(w.lines)
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) run(f *os.File) {
	defer close(w.done)
	zw := gzip.NewWriter(f)
	for line := range w.lines {
		if _, err := zw.Write([]byte(line)); err != nil {
			w.fail(err)
			break
		}
		if _, err := zw.Write([]byte{'\n'}); err != nil {
			w.fail(err)
			break
		}
	}
	// Drain anything left after a write failure so Close never hangs.
	for range w.lines {
	}
	if err := zw.Close(); err != nil {
		w.fail(err)
	}
	if err := f.Close(); err != nil {
		w.fail(err)
	}
}

func (w *Writer) fail(err error) {
	logrus.Errorf("log sink %s: %v", w.path, err)
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}
