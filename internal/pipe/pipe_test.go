// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aibor/vdrun/internal/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_Run(t *testing.T) {
	input := "boot\nready\n"

	t.Run("log and output", func(t *testing.T) {
		var log, output bytes.Buffer

		p := &pipe.Pipe{
			Name:     "crosvm",
			Input:    strings.NewReader(input),
			Log:      &log,
			Output:   &output,
			CopyFunc: pipe.PrefixLines("[crosvm] "),
		}

		require.NoError(t, p.Run())

		assert.Equal(t, input, log.String())
		assert.Equal(t, "[crosvm] boot\n[crosvm] ready\n", output.String())
	})

	t.Run("default copy", func(t *testing.T) {
		var log, output bytes.Buffer

		p := &pipe.Pipe{
			Name:   "crosvm",
			Input:  strings.NewReader(input),
			Log:    &log,
			Output: &output,
		}

		require.NoError(t, p.Run())

		assert.Equal(t, input, log.String())
		assert.Equal(t, input, output.String())
	})

	t.Run("log write fails", func(t *testing.T) {
		var output bytes.Buffer

		p := &pipe.Pipe{
			Name:     "crosvm",
			Input:    strings.NewReader(input),
			Log:      errWriter{},
			Output:   &output,
			CopyFunc: pipe.PrefixLines("[crosvm] "),
		}

		err := p.Run()
		require.ErrorIs(t, err, &pipe.Error{})
		require.ErrorIs(t, err, assert.AnError)
		require.NotErrorIs(t, err, pipe.ErrOutputFailed)
	})

	t.Run("output write fails", func(t *testing.T) {
		var log bytes.Buffer

		p := &pipe.Pipe{
			Name:     "crosvm",
			Input:    strings.NewReader(input),
			Log:      &log,
			Output:   errWriter{},
			CopyFunc: pipe.PrefixLines("[crosvm] "),
		}

		err := p.Run()
		require.ErrorIs(t, err, pipe.ErrOutputFailed)
		require.ErrorIs(t, err, assert.AnError)

		assert.Equal(t, input, log.String(), "log complete")
	})
}
