// Package logger provides the output sinks used during validation passes.
//
// A Sink is a destination for the human-readable output the governor decides
// to emit: periodic log lines, incremental progress updates, and formatted
// sample triples. Implementations cover the console (with color and TTY-aware
// progress rewriting), per-run log files, a fan-out over multiple sinks, and
// a no-op sink for tests and fully silenced runs. All implementations are
// safe for use from a single validation pass at a time.
package logger

// Sink receives output produced during a validation pass.
type Sink interface {
	// Info emits an ordinary log line.
	Info(message string)

	// Warn emits a warning line.
	Warn(message string)

	// Progress emits an incremental progress update. Sinks that have no
	// sensible place for transient output may discard these.
	Progress(line string)

	// Sample emits one evaluation example's source/hypothesis/reference
	// triple. scored reports whether score holds a real value.
	Sample(source, hypothesis, reference string, score float64, scored bool)

	// Close releases any resources held by the sink. Safe to call more than
	// once.
	Close() error
}

// MultiSink fans output out to several sinks in order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that forwards every call to each of the given
// sinks. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiSink{sinks: kept}
}

// Info forwards to all sinks.
func (m *MultiSink) Info(message string) {
	for _, s := range m.sinks {
		s.Info(message)
	}
}

// Warn forwards to all sinks.
func (m *MultiSink) Warn(message string) {
	for _, s := range m.sinks {
		s.Warn(message)
	}
}

// Progress forwards to all sinks.
func (m *MultiSink) Progress(line string) {
	for _, s := range m.sinks {
		s.Progress(line)
	}
}

// Sample forwards to all sinks.
func (m *MultiSink) Sample(source, hypothesis, reference string, score float64, scored bool) {
	for _, s := range m.sinks {
		s.Sample(source, hypothesis, reference, score, scored)
	}
}

// Close closes all sinks and returns the last error encountered.
func (m *MultiSink) Close() error {
	var lastErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopSink discards all output. Useful for tests and disabled logging.
type NoopSink struct{}

// NewNoopSink creates a NoopSink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

// Info discards the message.
func (n *NoopSink) Info(message string) {}

// Warn discards the message.
func (n *NoopSink) Warn(message string) {}

// Progress discards the update.
func (n *NoopSink) Progress(line string) {}

// Sample discards the triple.
func (n *NoopSink) Sample(source, hypothesis, reference string, score float64, scored bool) {}

// Close is a no-op.
func (n *NoopSink) Close() error {
	return nil
}
