// Testing utilities for structured logging.
//
// TestLogger is a zerolog-backed Logger that writes JSON lines into an
// in-memory buffer so tests can assert on what a component logged.

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// lockedBuffer serializes writes from concurrent loggers sharing one buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// TestLogger captures all log records in memory for later inspection.
type TestLogger struct {
	*ZerologLogger
	out *lockedBuffer
}

// NewTestLogger creates a new TestLogger with the specified minimum level.
//
// Example:
//
//	logger := log.NewTestLogger(log.LevelDebug)
//	opt, _ := optim.NewFTRLProximal(optim.WithFTRLLogger(logger))
//	...
//	if !logger.ContainsMessage("step applied") { ... }
func NewTestLogger(level Level) *TestLogger {
	out := &lockedBuffer{}
	zl := zerolog.New(out).Level(toZerologLevel(level))
	return &TestLogger{ZerologLogger: NewZerologLogger(zl), out: out}
}

// With implements Logger.With; the derived logger writes into the same buffer.
func (t *TestLogger) With(fields ...any) Logger {
	return &TestLogger{
		ZerologLogger: t.ZerologLogger.With(fields...).(*ZerologLogger),
		out:           t.out,
	}
}

// String returns everything captured so far.
func (t *TestLogger) String() string {
	return t.out.String()
}

// GetLogEntries parses the captured output into one map per record.
// JSON numbers decode as float64.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.out.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage checks if any captured record contains the given text.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.out.String(), message)
}

// ContainsField checks if any captured record has key set to value.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear clears all captured log content.
func (t *TestLogger) Clear() {
	t.out.Reset()
}

// TestLoggerProvider implements LoggerProvider for testing scenarios.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider creates a provider whose loggers all share one TestLogger buffer.
func NewTestLoggerProvider(level Level) *TestLoggerProvider {
	return &TestLoggerProvider{logger: NewTestLogger(level)}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.ZerologLogger.logger = p.logger.ZerologLogger.logger.Level(toZerologLevel(level))
}

// Logger returns the shared TestLogger for assertions.
func (p *TestLoggerProvider) Logger() *TestLogger {
	return p.logger
}
