// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package controlenv

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	rpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// GRPCInvoker is an [Invoker] using gRPC server reflection. Messages are
// encoded from and to JSON with the descriptors served by the server.
type GRPCInvoker struct {
	// DialOptions are added to the insecure transport credentials.
	DialOptions []grpc.DialOption
}

var _ Invoker = (*GRPCInvoker)(nil)

func (g *GRPCInvoker) dial(ctx context.Context, address string) (*grpc.ClientConn, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, g.DialOptions...)

	conn, err := grpc.DialContext(ctx, address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	return conn, nil
}

// withReflection runs fn with a connection and a reflection stream to the
// server.
func (g *GRPCInvoker) withReflection(
	ctx context.Context,
	address string,
	fn func(conn *grpc.ClientConn, client *reflectionClient) error,
) error {
	conn, err := g.dial(ctx, address)
	if err != nil {
		return err
	}
	defer conn.Close()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := rpb.NewServerReflectionClient(conn).ServerReflectionInfo(streamCtx)
	if err != nil {
		return fmt.Errorf("open reflection stream: %w", err)
	}

	err = fn(conn, &reflectionClient{stream: stream})

	_ = stream.CloseSend()

	return err
}

// ListServices implements [Invoker].
func (g *GRPCInvoker) ListServices(ctx context.Context, address string) ([]string, error) {
	var services []string

	err := g.withReflection(ctx, address, func(_ *grpc.ClientConn, client *reflectionClient) error {
		var err error

		services, err = client.listServices()

		return err
	})

	return services, err
}

// ListMethods implements [Invoker].
func (g *GRPCInvoker) ListMethods(ctx context.Context, address, service string) ([]string, error) {
	var methods []string

	err := g.withReflection(ctx, address, func(_ *grpc.ClientConn, client *reflectionClient) error {
		desc, err := client.service(service)
		if err != nil {
			return err
		}

		for idx := range desc.Methods().Len() {
			methods = append(methods, string(desc.Methods().Get(idx).Name()))
		}

		return nil
	})

	return methods, err
}

// MethodTypes implements [Invoker].
func (g *GRPCInvoker) MethodTypes(
	ctx context.Context,
	address, service, method string,
) (MethodTypes, error) {
	var types MethodTypes

	err := g.withReflection(ctx, address, func(_ *grpc.ClientConn, client *reflectionClient) error {
		desc, err := client.method(service, method)
		if err != nil {
			return err
		}

		types.Request = string(desc.Input().FullName())
		types.Response = string(desc.Output().FullName())

		return nil
	})

	return types, err
}

// DescribeType implements [Invoker]. The description is the JSON encoded
// descriptor of the message type.
func (g *GRPCInvoker) DescribeType(ctx context.Context, address, typeName string) (string, error) {
	var description string

	err := g.withReflection(ctx, address, func(_ *grpc.ClientConn, client *reflectionClient) error {
		files, err := client.files(typeName)
		if err != nil {
			return err
		}

		desc, err := files.FindDescriptorByName(protoreflect.FullName(typeName))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrNotFound, typeName, err)
		}

		msgDesc, ok := desc.(protoreflect.MessageDescriptor)
		if !ok {
			return fmt.Errorf("%w: %s is not a message", ErrNotFound, typeName)
		}

		description, err = marshalMessage(protodesc.ToDescriptorProto(msgDesc))

		return err
	})

	return description, err
}

// Call implements [Invoker].
func (g *GRPCInvoker) Call(
	ctx context.Context,
	address, service, method, request string,
) (string, error) {
	var response string

	err := g.withReflection(ctx, address, func(conn *grpc.ClientConn, client *reflectionClient) error {
		desc, err := client.method(service, method)
		if err != nil {
			return err
		}

		if desc.IsStreamingClient() || desc.IsStreamingServer() {
			return fmt.Errorf("%w: %s/%s", ErrStreamingMethod, service, method)
		}

		req := dynamicpb.NewMessage(desc.Input())

		err = protojson.Unmarshal([]byte(request), req)
		if err != nil {
			return fmt.Errorf("decode request: %w", err)
		}

		resp := dynamicpb.NewMessage(desc.Output())

		err = conn.Invoke(ctx, "/"+service+"/"+method, req, resp)
		if err != nil {
			return fmt.Errorf("invoke: %w", err)
		}

		response, err = marshalMessage(resp)

		return err
	})

	return response, err
}

func marshalMessage(msg proto.Message) (string, error) {
	data, err := protojson.MarshalOptions{Multiline: true}.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	return string(data) + "\n", nil
}

type reflectionClient struct {
	stream rpb.ServerReflection_ServerReflectionInfoClient
}

func (c *reflectionClient) request(
	req *rpb.ServerReflectionRequest,
) (*rpb.ServerReflectionResponse, error) {
	err := c.stream.Send(req)
	if err != nil {
		return nil, fmt.Errorf("send reflection request: %w", err)
	}

	resp, err := c.stream.Recv()
	if err != nil {
		return nil, fmt.Errorf("receive reflection response: %w", err)
	}

	if errResp := resp.GetErrorResponse(); errResp != nil {
		if codes.Code(errResp.GetErrorCode()) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, errResp.GetErrorMessage())
		}

		return nil, fmt.Errorf("%w: %s", ErrReflection, errResp.GetErrorMessage())
	}

	return resp, nil
}

func (c *reflectionClient) listServices() ([]string, error) {
	resp, err := c.request(&rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	})
	if err != nil {
		return nil, err
	}

	services := make([]string, 0, len(resp.GetListServicesResponse().GetService()))
	for _, service := range resp.GetListServicesResponse().GetService() {
		services = append(services, service.GetName())
	}

	return services, nil
}

// files returns the file containing the symbol with all its transitive
// dependencies.
func (c *reflectionClient) files(symbol string) (*protoregistry.Files, error) {
	protos := make(map[string]*descriptorpb.FileDescriptorProto)

	resp, err := c.request(&rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_FileContainingSymbol{
			FileContainingSymbol: symbol,
		},
	})
	if err != nil {
		return nil, err
	}

	pending, err := addFiles(protos, resp)
	if err != nil {
		return nil, err
	}

	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]

		if _, exists := protos[name]; exists {
			continue
		}

		resp, err := c.request(&rpb.ServerReflectionRequest{
			MessageRequest: &rpb.ServerReflectionRequest_FileByFilename{
				FileByFilename: name,
			},
		})
		if err != nil {
			return nil, err
		}

		missing, err := addFiles(protos, resp)
		if err != nil {
			return nil, err
		}

		pending = append(pending, missing...)
	}

	set := &descriptorpb.FileDescriptorSet{
		File: make([]*descriptorpb.FileDescriptorProto, 0, len(protos)),
	}
	for _, file := range protos {
		set.File = append(set.File, file)
	}

	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, fmt.Errorf("build descriptors: %w", err)
	}

	return files, nil
}

// addFiles adds the files of the response and returns the names of their
// dependencies that are not known yet.
func addFiles(
	protos map[string]*descriptorpb.FileDescriptorProto,
	resp *rpb.ServerReflectionResponse,
) ([]string, error) {
	var added []*descriptorpb.FileDescriptorProto

	for _, data := range resp.GetFileDescriptorResponse().GetFileDescriptorProto() {
		file := &descriptorpb.FileDescriptorProto{}

		err := proto.Unmarshal(data, file)
		if err != nil {
			return nil, fmt.Errorf("decode file descriptor: %w", err)
		}

		protos[file.GetName()] = file
		added = append(added, file)
	}

	var missing []string

	for _, file := range added {
		for _, dep := range file.GetDependency() {
			if _, exists := protos[dep]; !exists {
				missing = append(missing, dep)
			}
		}
	}

	return missing, nil
}

func (c *reflectionClient) service(name string) (protoreflect.ServiceDescriptor, error) {
	files, err := c.files(name)
	if err != nil {
		return nil, err
	}

	desc, err := files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return nil, fmt.Errorf("%w: service %s: %w", ErrNotFound, name, err)
	}

	service, ok := desc.(protoreflect.ServiceDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a service", ErrNotFound, name)
	}

	return service, nil
}

func (c *reflectionClient) method(service, method string) (protoreflect.MethodDescriptor, error) {
	desc, err := c.service(service)
	if err != nil {
		return nil, err
	}

	methodDesc := desc.Methods().ByName(protoreflect.Name(method))
	if methodDesc == nil {
		return nil, fmt.Errorf("%w: method %s/%s", ErrNotFound, service, method)
	}

	return methodDesc, nil
}
