// Package events carries the pipeline's progress notifications to
// whatever telemetry collaborator is attached. The pipeline never
// assumes anything is listening.
package events

import "go.uber.org/zap"

// Listener receives pipeline progress events. Implementations must be
// safe for concurrent use: chunk events fire from extraction goroutines.
type Listener interface {
	ChunkStarted(index int)
	ChunkFinished(index int)
	ChunkFailed(index int, err error)
	MergeStarted(fields int)
	MergeFinished(fields int)
}

// Nop discards all events.
type Nop struct{}

func (Nop) ChunkStarted(int)       {}
func (Nop) ChunkFinished(int)      {}
func (Nop) ChunkFailed(int, error) {}
func (Nop) MergeStarted(int)       {}
func (Nop) MergeFinished(int)      {}

// Logger emits every event as a structured log line.
type Logger struct {
	Log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{Log: log}
}

func (l *Logger) ChunkStarted(index int) {
	l.Log.Debug("chunk extraction started", zap.Int("chunk", index))
}

func (l *Logger) ChunkFinished(index int) {
	l.Log.Debug("chunk extraction finished", zap.Int("chunk", index))
}

func (l *Logger) ChunkFailed(index int, err error) {
	l.Log.Warn("chunk extraction failed", zap.Int("chunk", index), zap.Error(err))
}

func (l *Logger) MergeStarted(fields int) {
	l.Log.Debug("merge started", zap.Int("fields", fields))
}

func (l *Logger) MergeFinished(fields int) {
	l.Log.Debug("merge finished", zap.Int("fields", fields))
}
