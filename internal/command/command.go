// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package command

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
)

// minAdditionalFileDescriptor is the first file descriptor number of
// [Command] extra files in the child process. 0, 1, 2 are stdin, stdout and
// stderr.
const minAdditionalFileDescriptor = 3

// Command is an executable unit ready to be started as process.
//
// It is created by a [Builder] and does not change afterwards. It owns the
// resources handed to the builder until they are released by [Command.Close].
type Command struct {
	name       string
	binary     string
	args       []string
	env        []string
	extraFiles []*os.File
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer

	closeOnce sync.Once
	closeErr  error
	resources []io.Closer
}

// Name returns the name used to identify the command in logs and errors.
func (c *Command) Name() string {
	return c.name
}

// Binary returns the path of the executable.
func (c *Command) Binary() string {
	return c.binary
}

// Args returns a copy of the argument list, excluding the binary.
func (c *Command) Args() []string {
	return slices.Clone(c.args)
}

// String returns the command line.
func (c *Command) String() string {
	return strings.Join(append([]string{c.binary}, c.args...), " ")
}

// Cmd returns a new [exec.Cmd] for the command with all extra files and
// stream redirections set.
func (c *Command) Cmd() *exec.Cmd {
	cmd := exec.Command(c.binary, c.args...) //nolint:gosec
	cmd.ExtraFiles = slices.Clone(c.extraFiles)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}

	return cmd
}

// Close releases all resources owned by the command. It is safe to call
// multiple times. Once the process is started, the child holds its own copies
// of file descriptors, so closing them in the parent does not affect it.
func (c *Command) Close() error {
	c.closeOnce.Do(func() {
		errs := make([]error, 0, len(c.resources))

		for _, resource := range slices.Backward(c.resources) {
			errs = append(errs, resource.Close())
		}

		c.closeErr = errors.Join(errs...)
	})

	return c.closeErr
}

// CloseAll closes all given commands and returns the joined errors.
func CloseAll(cmds []*Command) error {
	errs := make([]error, 0, len(cmds))

	for _, cmd := range cmds {
		errs = append(errs, cmd.Close())
	}

	return errors.Join(errs...)
}
