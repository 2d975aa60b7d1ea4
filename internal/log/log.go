// Package log provides the shared logger for gac. Messages are buffered
// until a sink is chosen so that early startup output is not lost when the
// watcher runs under a service manager.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// sink collects log output and forwards it to a file once one is set.
// It implements io.Writer so it can back a standard log.Logger.
type sink struct {
	mu      sync.Mutex
	file    *os.File
	buffer  []byte
	discard bool
	mirror  bool // also copy lines to stderr (service journal capture)
}

var (
	globalSink = &sink{}
	stdLogger  = log.New(globalSink, "", log.LstdFlags|log.Lmicroseconds)
)

// Write implements io.Writer. Output goes to the file if one is set,
// otherwise it is buffered until SetFile is called.
func (s *sink) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror {
		_, _ = os.Stderr.Write(p)
	}

	if s.discard {
		return len(p), nil
	}

	if s.file != nil {
		n, err = s.file.Write(p)
		// Sync so messages survive a crash mid-commit; sync errors are
		// not worth failing a log call over.
		_ = s.file.Sync()
		return n, err
	}

	b := make([]byte, len(p))
	copy(b, p)
	s.buffer = append(s.buffer, b...)
	return len(p), nil
}

// SetFile directs log output to the given file path, creating it if
// needed and flushing anything buffered so far. An empty path discards
// buffered and future output.
func SetFile(path string) error {
	globalSink.mu.Lock()
	defer globalSink.mu.Unlock()

	if globalSink.file != nil {
		_ = globalSink.file.Close()
		globalSink.file = nil
	}

	if path == "" {
		globalSink.discard = true
		globalSink.buffer = nil
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		globalSink.discard = true
		globalSink.buffer = nil
		return err
	}

	globalSink.file = f
	globalSink.discard = false

	if len(globalSink.buffer) > 0 {
		_, _ = f.Write(globalSink.buffer)
		_ = f.Sync()
		globalSink.buffer = nil
	}

	return nil
}

// MirrorToStderr additionally copies every log line to stderr. The watcher
// enables this when running under a service manager so the journal captures
// the same stream.
func MirrorToStderr(enabled bool) {
	globalSink.mu.Lock()
	defer globalSink.mu.Unlock()
	globalSink.mirror = enabled
}

// Printf writes a formatted message via the standard logger.
func Printf(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Errorf writes a formatted message with an error prefix.
func Errorf(format string, args ...any) {
	stdLogger.Printf("error: %s", fmt.Sprintf(format, args...))
}

// Close closes the log file if open.
func Close() error {
	globalSink.mu.Lock()
	defer globalSink.mu.Unlock()

	if globalSink.file == nil {
		return nil
	}

	err := globalSink.file.Close()
	globalSink.file = nil
	return err
}
