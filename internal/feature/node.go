// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package feature

import (
	"context"

	"github.com/aibor/vdrun/internal/command"
)

// Node is a named unit of host side setup.
type Node interface {
	// Name returns the unique name of the node.
	Name() string

	// Enabled returns if the node takes part in the instance. It is
	// evaluated once on [Graph.Resolve].
	Enabled() bool

	// Dependencies returns the names of nodes that must complete their
	// setup before this node. Disabled dependencies are ignored.
	Dependencies() []string

	// Setup prepares the host resources of the node. It is called at most
	// once.
	Setup(ctx context.Context) error
}

// CommandSource is a [Node] that contributes commands to be launched.
type CommandSource interface {
	Node

	// Commands returns the commands of the node in launch order. It is
	// called only after all nodes completed their setup.
	Commands() ([]*command.Command, error)
}

// Report summarizes a [Graph.Run].
type Report struct {
	// Completed are the nodes with successful setup, in run order.
	Completed []string

	// Failed is the node whose setup failed, if any.
	Failed string

	// NotAttempted are the nodes that did not run, in resolution order.
	NotAttempted []string
}
