package vm

// logging is a small mixin, modeled on the teacher's tracing helper,
// that no-ops when no log function has been installed.
type logging struct {
	logfn func(mess string, args ...interface{})
}

func (lg logging) logf(mess string, args ...interface{}) {
	if lg.logfn != nil {
		lg.logfn(mess, args...)
	}
}
