package helmlayers

import (
	"io"

	"github.com/sirupsen/logrus"
)

// silentLogrus returns a logrus.Logger with output discarded, used by
// tests that need a Logger but don't assert on its output.
func silentLogrus() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
