// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// CopyFunc defines a function that reads the data from the given reader into
// the given writer.
//
// It may copy the data as is, like [io.Copy], or mutate or filter it as needed.
type CopyFunc func(dst io.Writer, src io.Reader) (int64, error)

var _ CopyFunc = io.Copy

// PrefixLines returns a [CopyFunc] that copies the data line buffered and
// writes the given prefix in front of each line.
//
// Lines are not length limited. A last line without trailing newline is
// written as is.
func PrefixLines(prefix string) CopyFunc {
	return func(dst io.Writer, src io.Reader) (int64, error) {
		var written int64

		reader := bufio.NewReader(src)

		for {
			line, readErr := reader.ReadString('\n')
			if len(line) > 0 {
				n, err := io.WriteString(dst, prefix+line)

				written += int64(n)

				if err != nil {
					return written, fmt.Errorf("write: %w", err)
				}
			}

			if errors.Is(readErr, io.EOF) {
				return written, nil
			}

			if readErr != nil {
				return written, fmt.Errorf("read: %w", readErr)
			}
		}
	}
}
