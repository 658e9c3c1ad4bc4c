// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package command

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Builder accumulates the parts of a [Command].
//
// Ownership of all resources added to the builder moves to the built
// [Command]. If the builder is abandoned, [Builder.Discard] releases them.
type Builder struct {
	cmd   *Command
	built bool
}

// NewBuilder creates a new [Builder] for the given binary. The command name
// defaults to the base name of the binary.
func NewBuilder(binary string) *Builder {
	return &Builder{
		cmd: &Command{
			name:   filepath.Base(binary),
			binary: binary,
		},
	}
}

// SetName sets the name identifying the command.
func (b *Builder) SetName(name string) *Builder {
	b.cmd.name = name
	return b
}

// SetBinary replaces the binary.
func (b *Builder) SetBinary(binary string) *Builder {
	b.cmd.binary = binary
	return b
}

// Binary returns the current binary.
func (b *Builder) Binary() string {
	return b.cmd.binary
}

// Name returns the current command name.
func (b *Builder) Name() string {
	return b.cmd.name
}

// AddParameter joins the given parts to a single argument and appends it,
// like AddParameter("--socket=", path).
func (b *Builder) AddParameter(parts ...string) *Builder {
	b.cmd.args = append(b.cmd.args, strings.Join(parts, ""))
	return b
}

// AddParameters appends each given argument as is.
func (b *Builder) AddParameters(args ...string) *Builder {
	b.cmd.args = append(b.cmd.args, args...)
	return b
}

// AddEnv adds an environment variable in "key=value" form. The process
// inherits the environment of the launcher in addition.
func (b *Builder) AddEnv(keyValue string) *Builder {
	b.cmd.env = append(b.cmd.env, keyValue)
	return b
}

// AddFile passes the file to the child process and returns the file
// descriptor number it has there. The file becomes owned by the command.
func (b *Builder) AddFile(file *os.File) int {
	b.Own(file)
	return b.PassFile(file)
}

// PassFile passes the file to the child process like [Builder.AddFile], but
// without taking ownership. Use it if the file is released by another owned
// resource, like a tap.
func (b *Builder) PassFile(file *os.File) int {
	b.cmd.extraFiles = append(b.cmd.extraFiles, file)
	return minAdditionalFileDescriptor + len(b.cmd.extraFiles) - 1
}

// FDPath returns the path the child process can open the file descriptor
// with.
func FDPath(fd int) string {
	return "/dev/fd/" + strconv.Itoa(fd)
}

// Own transfers ownership of the given resource to the command. It is closed
// on [Command.Close].
func (b *Builder) Own(resource io.Closer) *Builder {
	b.cmd.resources = append(b.cmd.resources, resource)
	return b
}

// SetStdin sets the standard input of the process.
func (b *Builder) SetStdin(reader io.Reader) *Builder {
	b.cmd.stdin = reader
	return b
}

// RedirectStdout sets the standard output of the process.
func (b *Builder) RedirectStdout(writer io.Writer) *Builder {
	b.cmd.stdout = writer
	return b
}

// RedirectStderr sets the standard error output of the process.
func (b *Builder) RedirectStderr(writer io.Writer) *Builder {
	b.cmd.stderr = writer
	return b
}

// Build returns the accumulated [Command]. A builder can be built only once.
func (b *Builder) Build() (*Command, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}

	if b.cmd.binary == "" {
		_ = b.Discard()
		return nil, ErrNoBinary
	}

	b.built = true

	return b.cmd, nil
}

// Discard releases all resources added so far. The builder must not be used
// afterwards.
func (b *Builder) Discard() error {
	b.built = true
	return b.cmd.Close()
}
