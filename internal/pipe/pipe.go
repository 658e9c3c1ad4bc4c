// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"fmt"
	"io"
)

// Pipe copies a single input stream unchanged into a log and transformed by
// its [CopyFunc] into an output.
//
// Failing log writes abort the copy. Failing output writes do not. The
// output is dropped from then on and the error is reported once the input is
// exhausted, so the log stays complete.
type Pipe struct {
	Name     string
	Input    io.Reader
	Log      io.Writer
	Output   io.Writer
	CopyFunc CopyFunc
}

// Run copies until the input returns EOF or an error occurs.
func (p *Pipe) Run() error {
	copyFunc := p.CopyFunc
	if copyFunc == nil {
		copyFunc = io.Copy
	}

	output := &stickyErrorWriter{writer: p.Output}
	input := io.TeeReader(p.Input, p.Log)

	_, err := copyFunc(output, input)
	if err != nil {
		return &Error{Name: p.Name, Err: err}
	}

	if output.err != nil {
		return &Error{
			Name: p.Name,
			Err:  fmt.Errorf("%w: %w", ErrOutputFailed, output.err),
		}
	}

	return nil
}

// stickyErrorWriter records the first write error of the underlying writer
// and discards all data from then on.
type stickyErrorWriter struct {
	writer io.Writer
	err    error
}

func (w *stickyErrorWriter) Write(data []byte) (int, error) {
	if w.err == nil {
		_, w.err = w.writer.Write(data)
	}

	return len(data), nil
}
