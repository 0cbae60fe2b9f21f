package audit

// Writer is the interface for audit event destinations.
type Writer interface {
	// Write persists an audit event. Returns error if the event
	// could not be written. Callers must treat a write failure as
	// an operation failure.
	Write(event *Event) error

	// Close flushes and closes the writer.
	Close() error
}

// NopWriter is a no-op writer used when audit logging is disabled.
type NopWriter struct{}

func (NopWriter) Write(*Event) error { return nil }
func (NopWriter) Close() error       { return nil }

// MultiWriter writes events to multiple writers.
// All writers must succeed for the write to be considered successful.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a writer that duplicates events to all
// provided writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(event *Event) error {
	for _, w := range m.writers {
		if err := w.Write(event); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiWriter) Close() error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
