// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package controlenv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Services that are part of every server and never addressed by commands.
var infrastructureServices = []string{
	"grpc.reflection.v1alpha.ServerReflection",
	"grpc.reflection.v1.ServerReflection",
	"grpc.health.v1.Health",
}

// MethodTypes are the fully qualified message type names of a method.
type MethodTypes struct {
	Request  string
	Response string
}

// Invoker talks to the gRPC servers of an instance. Addresses are gRPC
// targets, like "unix:/path/to/socket".
type Invoker interface {
	// ListServices returns the fully qualified names of all services of the
	// server.
	ListServices(ctx context.Context, address string) ([]string, error)

	// ListMethods returns the method names of the service.
	ListMethods(ctx context.Context, address, service string) ([]string, error)

	// MethodTypes returns the message types of the method.
	MethodTypes(ctx context.Context, address, service, method string) (MethodTypes, error)

	// DescribeType returns a description of the message type.
	DescribeType(ctx context.Context, address, typeName string) (string, error)

	// Call invokes the unary method with the JSON encoded request and
	// returns the JSON encoded response.
	Call(ctx context.Context, address, service, method, request string) (string, error)
}

type handler struct {
	invoker   Invoker
	addresses []string
}

type handlerFunc func(h *handler, ctx context.Context, args []string) (string, error)

var commands = map[string]handlerFunc{
	"ls":            (*handler).list,
	"list":          (*handler).list,
	"type":          (*handler).describeType,
	"describe-type": (*handler).describeType,
	"call":          (*handler).call,
}

// HandleCmds runs the control command with the given arguments against the
// servers found in socketDir and returns the output.
//
// Supported commands:
//
//	ls [<service> [<method>]]
//	type <service> <method> <type>
//	call <service> <method> <json>
//
// Services, methods and types are matched by name suffix.
func HandleCmds(
	ctx context.Context,
	socketDir string,
	cmd string,
	args []string,
	invoker Invoker,
) (string, error) {
	handle, exists := commands[cmd]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd)
	}

	entries, err := os.ReadDir(socketDir)
	if err != nil {
		return "", fmt.Errorf("read socket dir: %w", err)
	}

	h := &handler{
		invoker:   invoker,
		addresses: make([]string, 0, len(entries)),
	}

	for _, entry := range entries {
		path := filepath.Join(socketDir, entry.Name())
		slog.Debug("Loading server", slog.String("path", path))
		h.addresses = append(h.addresses, "unix:"+path)
	}

	return handle(h, ctx, args)
}

func (h *handler) services(ctx context.Context, address string) ([]string, error) {
	services, err := h.invoker.ListServices(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("list services of %s: %w", address, err)
	}

	return slices.DeleteFunc(services, func(service string) bool {
		return slices.Contains(infrastructureServices, service)
	}), nil
}

func matchSuffix(candidates []string, name string) (string, error) {
	var matches []string

	for _, candidate := range candidates {
		if strings.HasSuffix(candidate, name) && !slices.Contains(matches, candidate) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s is %w", name, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s is %w", name, ErrAmbiguous)
	}
}

// resolveService returns the address of the only server with a service
// matching the name and the full name of that service.
func (h *handler) resolveService(ctx context.Context, name string) (string, string, error) {
	var (
		address  string
		service  string
		numFound int
	)

	for _, candidate := range h.addresses {
		services, err := h.services(ctx, candidate)
		if err != nil {
			return "", "", err
		}

		fullName, err := matchSuffix(services, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}

			return "", "", err
		}

		address, service = candidate, fullName
		numFound++
	}

	switch numFound {
	case 0:
		return "", "", fmt.Errorf("%s is %w", name, ErrNotFound)
	case 1:
		return address, service, nil
	default:
		return "", "", fmt.Errorf("%s is %w", name, ErrAmbiguous)
	}
}

func (h *handler) list(ctx context.Context, args []string) (string, error) {
	switch len(args) {
	case 0:
		names := []string{}

		for _, address := range h.addresses {
			services, err := h.services(ctx, address)
			if err != nil {
				return "", err
			}

			for _, service := range services {
				names = append(names, shortName(service))
			}
		}

		return marshal(map[string][]string{"services": names})
	case 1:
		address, service, err := h.resolveService(ctx, args[0])
		if err != nil {
			return "", err
		}

		methods, err := h.invoker.ListMethods(ctx, address, service)
		if err != nil {
			return "", fmt.Errorf("list methods of %s: %w", service, err)
		}

		if methods == nil {
			methods = []string{}
		}

		return marshal(map[string][]string{"methods": methods})
	case 2:
		address, service, err := h.resolveService(ctx, args[0])
		if err != nil {
			return "", err
		}

		types, err := h.invoker.MethodTypes(ctx, address, service, args[1])
		if err != nil {
			return "", fmt.Errorf("method %s/%s: %w", service, args[1], err)
		}

		return marshal(map[string]string{
			"request_type":  shortName(types.Request),
			"response_type": shortName(types.Response),
		})
	default:
		return "", ErrTooManyArguments
	}
}

func checkArgs(args []string, names string) error {
	switch {
	case len(args) < 3:
		return fmt.Errorf("%w: need %s", ErrMissingArguments, names)
	case len(args) > 3:
		return ErrTooManyArguments
	default:
		return nil
	}
}

func (h *handler) describeType(ctx context.Context, args []string) (string, error) {
	err := checkArgs(args, "a service name, a method name and a type name")
	if err != nil {
		return "", err
	}

	address, service, err := h.resolveService(ctx, args[0])
	if err != nil {
		return "", err
	}

	types, err := h.invoker.MethodTypes(ctx, address, service, args[1])
	if err != nil {
		return "", fmt.Errorf("method %s/%s: %w", service, args[1], err)
	}

	typeName, err := matchSuffix([]string{types.Request, types.Response}, args[2])
	if err != nil {
		return "", err
	}

	description, err := h.invoker.DescribeType(ctx, address, typeName)
	if err != nil {
		return "", fmt.Errorf("describe type %s: %w", typeName, err)
	}

	return description, nil
}

func (h *handler) call(ctx context.Context, args []string) (string, error) {
	err := checkArgs(args, "a service name, a method name and a JSON formatted request")
	if err != nil {
		return "", err
	}

	address, service, err := h.resolveService(ctx, args[0])
	if err != nil {
		return "", err
	}

	response, err := h.invoker.Call(ctx, address, service, args[1], args[2])
	if err != nil {
		return "", fmt.Errorf("call %s/%s: %w", service, args[1], err)
	}

	return response, nil
}

func shortName(fullName string) string {
	return fullName[strings.LastIndex(fullName, ".")+1:]
}

func marshal(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}

	return string(data) + "\n", nil
}
