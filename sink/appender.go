// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package sink

import (
	"os"
	"strings"
	"sync"

	"github.com/siemens/mxdig/types"
)

// Appender appends lines to some output destination.
type Appender interface {
	Append(line string) error
}

// FileAppender appends lines to a file, creating the file when necessary.
// Each append opens the file, writes the complete line, and closes the file
// again, so that matches are persisted immediately, even if the process gets
// killed later. Concurrent appends are serialized, so lines never interleave.
type FileAppender struct {
	path string
	mu   sync.Mutex
}

var _ Appender = (*FileAppender)(nil)

// NewFileAppender returns a new FileAppender for the file at path. The file
// is not created until appending the first line.
func NewFileAppender(path string) *FileAppender {
	return &FileAppender{path: path}
}

// Path returns the path of the file appended to.
func (a *FileAppender) Path() string {
	return a.path
}

// Append the specified line, adding a newline if necessary. Errors are
// returned as [types.AppendError].
func (a *FileAppender) Append(line string) (err error) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &types.AppendError{Path: a.path, Cause: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &types.AppendError{Path: a.path, Cause: cerr}
		}
	}()
	if _, err := f.WriteString(line); err != nil {
		return &types.AppendError{Path: a.path, Cause: err}
	}
	return nil
}
