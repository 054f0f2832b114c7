package kdlindex

import "github.com/sirupsen/logrus"

// diagLog is the package-level diagnostic logger. It defaults to a
// disabled logger so the library is silent unless a caller opts in with
// SetLogger — mirroring the structured-logging style vippsas/sqlcode uses
// around its own document/scanner pipeline, scoped here to non-fatal
// pool/lifecycle events only (never the parse or navigation hot path).
var diagLog = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel) // effectively silent until raised
	return l
}()

// SetLogger installs a logger for internal diagnostics: pooled buffers
// returned to their pool, and metadata DB growth past its initial
// capacity. Buffer rentals and repeated Dispose calls are not logged.
// Passing nil restores the default silent logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.New()
		l.SetLevel(logrus.PanicLevel)
	}
	diagLog = l
}
