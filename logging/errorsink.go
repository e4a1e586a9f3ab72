package logging

// StandardErrorSink adapts a Logger into an ErrorSink by emitting each
// reported error as a structured ERROR-level log line. It never itself
// fails — addError failures must not mask the underlying error being
// reported, so this implementation cannot return one.
type StandardErrorSink struct {
	logger *StandardLogger
}

// NewStandardErrorSink builds an ErrorSink backed by the given logger.
// If logger is nil, a fresh StandardLogger is created.
func NewStandardErrorSink(logger *StandardLogger) *StandardErrorSink {
	if logger == nil {
		logger = NewStandardLogger()
	}
	return &StandardErrorSink{logger: logger}
}

// AddError implements ErrorSink.
func (s *StandardErrorSink) AddError(message string, code, origin string, data map[string]interface{}) {
	s.logger.Errorf("[%s] %s origin=%s data=%v", code, message, origin, data)
}

// NopErrorSink discards everything.
type NopErrorSink struct{}

func (NopErrorSink) AddError(string, string, string, map[string]interface{}) {}
