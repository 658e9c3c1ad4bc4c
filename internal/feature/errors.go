// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package feature

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPanic is returned if a [Node.Setup] panicked.
	ErrPanic = errors.New("setup panicked")

	// ErrAlreadyRun is returned if [Graph.Run] is called more than once.
	ErrAlreadyRun = errors.New("graph already run")

	// ErrNotRun is returned if commands are collected before a successful
	// [Graph.Run].
	ErrNotRun = errors.New("graph did not run successfully")
)

// DuplicateNameError is returned if a node name is registered twice.
type DuplicateNameError struct {
	Name string
}

// Error implements the [error] interface.
func (e *DuplicateNameError) Error() string {
	return "duplicate feature name: " + e.Name
}

// Is implements the [errors.Is] interface.
func (*DuplicateNameError) Is(other error) bool {
	_, ok := other.(*DuplicateNameError)
	return ok
}

// CycleError is returned if the dependencies of enabled nodes form a cycle.
type CycleError struct {
	// Nodes are the members of the cycle, each depending on the next and
	// the last depending on the first.
	Nodes []string
}

// Error implements the [error] interface.
func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Nodes, " -> ")
}

// Is implements the [errors.Is] interface.
func (*CycleError) Is(other error) bool {
	_, ok := other.(*CycleError)
	return ok
}

// MissingDependencyError is returned if a node depends on a name that is not
// registered. Disabled nodes are checked as well.
type MissingDependencyError struct {
	Node       string
	Dependency string
}

// Error implements the [error] interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("feature %s depends on unknown feature %s", e.Node, e.Dependency)
}

// Is implements the [errors.Is] interface.
func (*MissingDependencyError) Is(other error) bool {
	_, ok := other.(*MissingDependencyError)
	return ok
}

// RunError is returned if the setup of a node failed.
type RunError struct {
	// Node is the name of the failing node.
	Node string
	Err  error

	// Completed are the nodes that completed their setup before.
	Completed []string

	// NotAttempted are the nodes that were not run because of the failure.
	NotAttempted []string
}

// Error implements the [error] interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("setup of feature %s: %v", e.Node, e.Err)
}

// Is implements the [errors.Is] interface.
func (*RunError) Is(other error) bool {
	_, ok := other.(*RunError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *RunError) Unwrap() error {
	return e.Err
}
