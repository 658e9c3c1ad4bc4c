// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package feature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/aibor/vdrun/internal/command"
)

// Graph schedules the setup of [Node]s in dependency order.
//
// All methods must be called from the same goroutine.
type Graph struct {
	nodes   []Node
	index   map[string]int
	sources map[string]CommandSource

	order    []Node
	resolved bool
	ran      bool
	success  bool
	report   Report
}

// NewGraph creates a new empty [Graph].
func NewGraph() *Graph {
	return &Graph{
		index:   make(map[string]int),
		sources: make(map[string]CommandSource),
	}
}

// Register adds the node to the graph. Nodes registered earlier win ties in
// the resolution order.
func (g *Graph) Register(node Node) error {
	name := node.Name()

	if _, exists := g.index[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, node)

	if source, ok := node.(CommandSource); ok {
		g.sources[name] = source
	}

	g.resolved = false

	return nil
}

// RegisterAll registers all given nodes in order and returns the first error.
func (g *Graph) RegisterAll(nodes ...Node) error {
	for _, node := range nodes {
		err := g.Register(node)
		if err != nil {
			return err
		}
	}

	return nil
}

// Resolve returns the enabled nodes in an order where every node comes after
// all its enabled dependencies. Among nodes that are ready at the same time,
// the one registered first comes first.
func (g *Graph) Resolve() ([]Node, error) {
	if g.resolved {
		return slices.Clone(g.order), nil
	}

	enabled := make([]bool, len(g.nodes))

	for idx, node := range g.nodes {
		enabled[idx] = node.Enabled()

		for _, dep := range node.Dependencies() {
			if _, exists := g.index[dep]; !exists {
				return nil, &MissingDependencyError{Node: node.Name(), Dependency: dep}
			}
		}
	}

	// dependents[i] are the indexes of enabled nodes depending on node i.
	dependents := make([][]int, len(g.nodes))
	inDegree := make([]int, len(g.nodes))

	for idx, node := range g.nodes {
		if !enabled[idx] {
			continue
		}

		seen := make(map[int]bool)

		for _, dep := range node.Dependencies() {
			depIdx := g.index[dep]
			if !enabled[depIdx] || seen[depIdx] {
				continue
			}

			seen[depIdx] = true
			dependents[depIdx] = append(dependents[depIdx], idx)
			inDegree[idx]++
		}
	}

	var ready, order []int

	for idx := range g.nodes {
		if enabled[idx] && inDegree[idx] == 0 {
			ready = append(ready, idx)
		}
	}

	for len(ready) > 0 {
		// Ready is kept sorted, so the lowest registration index is first.
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				pos, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, pos, dependent)
			}
		}
	}

	numEnabled := 0

	for _, isEnabled := range enabled {
		if isEnabled {
			numEnabled++
		}
	}

	if len(order) < numEnabled {
		return nil, &CycleError{Nodes: g.findCycle(enabled, inDegree)}
	}

	g.order = make([]Node, 0, len(order))
	for _, idx := range order {
		g.order = append(g.order, g.nodes[idx])
	}

	g.resolved = true

	return slices.Clone(g.order), nil
}

// findCycle returns the names of the nodes of one dependency cycle among the
// enabled nodes that could not be ordered.
func (g *Graph) findCycle(enabled []bool, inDegree []int) []string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make([]int, len(g.nodes))
	remaining := func(idx int) bool { return enabled[idx] && inDegree[idx] > 0 }

	var (
		stack []int
		cycle []string
		visit func(idx int) bool
	)

	visit = func(idx int) bool {
		state[idx] = visiting
		stack = append(stack, idx)

		for _, dep := range g.nodes[idx].Dependencies() {
			depIdx, exists := g.index[dep]
			if !exists || !remaining(depIdx) {
				continue
			}

			switch state[depIdx] {
			case visiting:
				start := slices.Index(stack, depIdx)
				for _, member := range stack[start:] {
					cycle = append(cycle, g.nodes[member].Name())
				}

				return true
			case unvisited:
				if visit(depIdx) {
					return true
				}
			}
		}

		state[idx] = done
		stack = stack[:len(stack)-1]

		return false
	}

	for idx := range g.nodes {
		if remaining(idx) && state[idx] == unvisited && visit(idx) {
			break
		}
	}

	return cycle
}

// Run calls [Node.Setup] of all enabled nodes in resolution order.
//
// It stops at the first failing node and returns a [*RunError]. Nodes that
// completed their setup are not rolled back. Run may be called only once.
func (g *Graph) Run(ctx context.Context) error {
	if g.ran {
		return ErrAlreadyRun
	}

	g.ran = true

	order, err := g.Resolve()
	if err != nil {
		return err
	}

	g.report = Report{}

	for idx, node := range order {
		name := node.Name()

		err := ctx.Err()
		if err == nil {
			slog.Debug("Setup feature", slog.String("feature", name))
			err = setup(ctx, node)
		}

		if err != nil {
			g.report.Failed = name
			g.report.NotAttempted = names(order[idx+1:])

			return &RunError{
				Node:         name,
				Err:          err,
				Completed:    slices.Clone(g.report.Completed),
				NotAttempted: slices.Clone(g.report.NotAttempted),
			}
		}

		g.report.Completed = append(g.report.Completed, name)
	}

	g.success = true

	return nil
}

func setup(ctx context.Context, node Node) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}

		if recoveredErr, ok := rec.(error); ok {
			err = fmt.Errorf("%w: %w", ErrPanic, recoveredErr)
		} else {
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()

	return node.Setup(ctx)
}

// Report returns the summary of the last [Graph.Run].
func (g *Graph) Report() Report {
	return Report{
		Completed:    slices.Clone(g.report.Completed),
		Failed:       g.report.Failed,
		NotAttempted: slices.Clone(g.report.NotAttempted),
	}
}

// CollectCommands returns the commands of all enabled [CommandSource]s in
// resolution order. It requires a successful [Graph.Run].
//
// If any source fails, the commands collected so far are closed.
func (g *Graph) CollectCommands() ([]*command.Command, error) {
	if !g.success {
		return nil, ErrNotRun
	}

	var cmds []*command.Command

	for _, node := range g.order {
		source, ok := g.sources[node.Name()]
		if !ok {
			continue
		}

		sourceCmds, err := source.Commands()
		if err != nil {
			_ = command.CloseAll(cmds)
			return nil, fmt.Errorf("commands of %s: %w", node.Name(), err)
		}

		cmds = append(cmds, sourceCmds...)
	}

	return cmds, nil
}

// Close closes all registered nodes that implement [io.Closer], in reverse
// resolution order. Nodes outside the resolution order are closed last, in
// reverse registration order.
func (g *Graph) Close() error {
	var (
		errs   []error
		closed = make(map[string]bool)
	)

	closeNode := func(node Node) {
		if closed[node.Name()] {
			return
		}

		closed[node.Name()] = true

		if closer, ok := node.(io.Closer); ok {
			err := closer.Close()
			if err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", node.Name(), err))
			}
		}
	}

	for _, node := range slices.Backward(g.order) {
		closeNode(node)
	}

	for _, node := range slices.Backward(g.nodes) {
		closeNode(node)
	}

	return errors.Join(errs...)
}

func names(nodes []Node) []string {
	result := make([]string, 0, len(nodes))

	for _, node := range nodes {
		result = append(result, node.Name())
	}

	return result
}
