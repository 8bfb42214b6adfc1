// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bytes"
	"io"
)

// logBuffer captures step output for the run result, optionally teeing it
// to a live writer for verbose mode. Not safe for concurrent writers;
// provisioning steps run sequentially.
type logBuffer struct {
	buf bytes.Buffer
	tee io.Writer
}

// newLogBuffer returns a logBuffer. tee may be nil.
func newLogBuffer(tee io.Writer) *logBuffer {
	return &logBuffer{tee: tee}
}

// Write implements io.Writer.
func (l *logBuffer) Write(p []byte) (int, error) {
	if l.tee != nil {
		// Best effort; a broken tee must not fail the step.
		_, _ = l.tee.Write(p)
	}
	return l.buf.Write(p)
}

// String returns everything written so far.
func (l *logBuffer) String() string {
	return l.buf.String()
}
