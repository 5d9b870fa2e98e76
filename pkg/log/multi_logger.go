package log

// MultiLogger fans events out to several loggers, typically a FileLogger
// and a SlogAdapter.
type MultiLogger []Logger

// NewMultiLogger combines loggers, skipping nil entries.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	m := make(MultiLogger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

// Log passes event to every logger in order.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

var _ Logger = MultiLogger(nil)
