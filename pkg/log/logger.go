package log

// Logger is the logging interface consumed throughout the controller.
// Components take a Logger instead of reaching for a process-wide logger,
// so tests can substitute their own implementation and assert on output.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}
