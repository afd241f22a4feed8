package gelf

import "go.uber.org/zap/zapcore"

// Core is a zapcore.Core that forwards entries to a Writer. Fields become
// GELF additional fields.
type Core struct {
	zapcore.LevelEnabler
	w      *Writer
	fields []zapcore.Field
}

func NewCore(w *Writer, enab zapcore.LevelEnabler) *Core {
	return &Core{LevelEnabler: enab, w: w}
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if ent.LoggerName != "" {
		enc.Fields["logger"] = ent.LoggerName
	}
	// a lost log line must not fail the caller
	_ = c.w.Send(ent.Message, Level(ent.Level), ent.Time, enc.Fields)
	return nil
}

func (c *Core) Sync() error { return nil }
