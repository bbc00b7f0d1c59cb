// Package dimblelog provides leveled, opt-in logging for the codec
// packages. By default nothing is logged; callers that want visibility
// into downgrades and placeholders (the multi-item SQ downgrade, the
// pixel-data JSON placeholder) raise the level with SetLevel.
package dimblelog

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// level sets log verbosity. The larger the value, the more verbose. Setting
// it to -1 disables logging completely (the default, 0, still logs nothing
// since Vprintf calls here are all level >= 1).
var level = int32(0)

// SetLevel sets log verbosity. Thread safe.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

// Level returns the current log level. Thread safe.
func Level() int {
	return int(atomic.LoadInt32(&level))
}

// Vprintf is shorthand for "if Level() >= l { logrus.Printf(...) }".
func Vprintf(l int, format string, args ...interface{}) {
	if Level() >= l {
		logrus.Printf(format, args...)
	}
}
