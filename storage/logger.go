package storage

// noopLogger discards pebble's internal diagnostic logging. Adapted from
// the teacher's lib/pebbleutil.NoopLoggerAndTracer, trimmed to the two
// methods pebble.Logger actually requires: this module carries no
// core-level logging dependency (SPEC_FULL.md §1.2), so the backend's own
// log output is the one place a silent sink is still needed.
type noopLogger struct{}

func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Fatalf(format string, args ...interface{}) {}
