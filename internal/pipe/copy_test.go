// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe_test

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/aibor/vdrun/internal/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errWriter struct{}

func (errWriter) Write(_ []byte) (int, error) {
	return 0, assert.AnError
}

func (errWriter) String() string {
	return ""
}

func TestPrefixLines(t *testing.T) {
	tests := []struct {
		name   string
		reader io.Reader
		writer interface {
			io.Writer
			fmt.Stringer
		}
		expected    string
		expectedN   int64
		expectedErr error
	}{
		{
			name:   "read eof",
			reader: iotest.ErrReader(io.EOF),
			writer: &bytes.Buffer{},
		},
		{
			name:      "read data with eof",
			reader:    iotest.DataErrReader(strings.NewReader("test\ndata\nmore")),
			writer:    &bytes.Buffer{},
			expected:  "[vm] test\n[vm] data\n[vm] more",
			expectedN: 29,
		},
		{
			// Longer than the bufio.Reader default buffer of 4096 bytes.
			name:      "long line",
			reader:    strings.NewReader(strings.Repeat("testdata", 4096) + "\n"),
			writer:    &bytes.Buffer{},
			expected:  "[vm] " + strings.Repeat("testdata", 4096) + "\n",
			expectedN: 5 + 8*4096 + 1,
		},
		{
			name:        "read error",
			reader:      iotest.TimeoutReader(strings.NewReader("test\ndata\n")),
			writer:      &bytes.Buffer{},
			expected:    "[vm] test\n[vm] data\n",
			expectedN:   20,
			expectedErr: iotest.ErrTimeout,
		},
		{
			name:        "write error",
			reader:      strings.NewReader("test\ndata\n"),
			writer:      errWriter{},
			expectedErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := pipe.PrefixLines("[vm] ")(tt.writer, tt.reader)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedN, n)
			assert.Equal(t, tt.expected, tt.writer.String())
		})
	}
}
