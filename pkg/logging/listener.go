package logging

import (
	"go.uber.org/atomic"
	"go.uber.org/zap/zapcore"
)

// levelListener is a core that writes nothing. It only records that an enabled entry was seen.
type levelListener struct {
	zapcore.LevelEnabler
	seen *atomic.Bool
}

func NewLevelListener(level zapcore.LevelEnabler, seen *atomic.Bool) zapcore.Core {
	return &levelListener{
		LevelEnabler: level,
		seen:         seen,
	}
}

func (l *levelListener) With([]zapcore.Field) zapcore.Core {
	return l
}

func (l *levelListener) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if l.Enabled(entry.Level) {
		return ce.AddCore(entry, l)
	}
	return ce
}

func (l *levelListener) Write(zapcore.Entry, []zapcore.Field) error {
	l.seen.Store(true)
	return nil
}

func (l *levelListener) Sync() error {
	return nil
}
