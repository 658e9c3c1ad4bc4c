// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package logtee

import (
	"fmt"
	"io"
	"os"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/pipe"
)

// SubCommand is the sub command of the relay binary that runs [Relay].
const SubCommand = "logtee"

// LogPathFunc returns the log file path for the given process name.
type LogPathFunc func(processName string) (string, error)

// Creator creates relay commands that write the output of other commands
// into log files and onto the launcher's console.
type Creator struct {
	// Binary is the relay binary. It must support the [SubCommand].
	Binary string

	// LogPath returns the log file of a process.
	LogPath LogPathFunc

	// Output is the stdout of the relay. Defaults to [os.Stdout].
	Output *os.File
}

// CreateLogTee routes stdout and stderr of the given builder into a new pipe
// and returns the relay command reading from it.
//
// The write end is owned by the builder's command, the read end by the relay
// command. The relay must be started before the command it relays for.
func (c *Creator) CreateLogTee(
	builder *command.Builder,
	processName string,
) (*command.Command, error) {
	logPath, err := c.LogPath(processName)
	if err != nil {
		return nil, fmt.Errorf("log path of %s: %w", processName, err)
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe for %s: %w", processName, err)
	}

	builder.RedirectStdout(writer)
	builder.RedirectStderr(writer)
	builder.Own(writer)

	output := c.Output
	if output == nil {
		output = os.Stdout
	}

	tee, err := command.NewBuilder(c.Binary).
		SetName(processName+"_logtee").
		AddParameters(SubCommand, "--process-name", processName, "--log-file", logPath).
		SetStdin(reader).
		RedirectStdout(output).
		RedirectStderr(os.Stderr).
		Own(reader).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build log tee for %s: %w", processName, err)
	}

	return tee, nil
}

// Relay copies src unchanged into the log file and line-prefixed with the
// process name into out, until src is exhausted.
//
// A failing log write aborts the relay. A failing out write is reported once
// src is exhausted.
func Relay(src io.Reader, logFile io.Writer, out io.Writer, processName string) error {
	p := &pipe.Pipe{
		Name:     processName,
		Input:    src,
		Log:      logFile,
		Output:   out,
		CopyFunc: pipe.PrefixLines("[" + processName + "] "),
	}

	return p.Run()
}

// RelayToFile runs [Relay] with the log file at the given path. The file is
// created if necessary and appended to.
func RelayToFile(src io.Reader, logPath string, out io.Writer, processName string) error {
	file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	relayErr := Relay(src, file, out, processName)

	err = file.Close()
	if relayErr != nil {
		return relayErr
	}

	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	return nil
}
