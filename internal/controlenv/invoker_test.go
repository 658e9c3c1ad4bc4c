// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package controlenv_test

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"

	"github.com/aibor/vdrun/internal/controlenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	testpb "google.golang.org/grpc/interop/grpc_testing"
	"google.golang.org/grpc/reflection"
)

type testService struct {
	testpb.UnimplementedTestServiceServer
}

func (testService) EmptyCall(context.Context, *testpb.Empty) (*testpb.Empty, error) {
	return &testpb.Empty{}, nil
}

func (testService) UnaryCall(_ context.Context, req *testpb.SimpleRequest) (*testpb.SimpleResponse, error) {
	resp := &testpb.SimpleResponse{}
	if req.GetFillUsername() {
		resp.Username = "vdrun"
	}

	return resp, nil
}

func startServer(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	listener, err := net.Listen("unix", filepath.Join(dir, "test.sock"))
	require.NoError(t, err)

	server := grpc.NewServer()
	testpb.RegisterTestServiceServer(server, testService{})
	healthpb.RegisterHealthServer(server, health.NewServer())
	reflection.Register(server)

	go func() { _ = server.Serve(listener) }()

	t.Cleanup(server.Stop)

	return dir
}

func TestGRPCInvoker(t *testing.T) {
	dir := startServer(t)
	invoker := &controlenv.GRPCInvoker{}
	ctx := context.Background()

	handle := func(t *testing.T, cmd string, args ...string) string {
		t.Helper()

		output, err := controlenv.HandleCmds(ctx, dir, cmd, args, invoker)
		require.NoError(t, err)

		return output
	}

	t.Run("ls services", func(t *testing.T) {
		assert.JSONEq(t, `{"services":["TestService"]}`, handle(t, "ls"))
	})

	t.Run("ls methods", func(t *testing.T) {
		var output struct {
			Methods []string `json:"methods"`
		}

		require.NoError(t, json.Unmarshal([]byte(handle(t, "ls", "TestService")), &output))
		assert.Contains(t, output.Methods, "EmptyCall")
		assert.Contains(t, output.Methods, "UnaryCall")
		assert.Contains(t, output.Methods, "FullDuplexCall")
	})

	t.Run("ls method", func(t *testing.T) {
		assert.JSONEq(t,
			`{"request_type":"SimpleRequest","response_type":"SimpleResponse"}`,
			handle(t, "ls", "TestService", "UnaryCall"),
		)
	})

	t.Run("type", func(t *testing.T) {
		var output map[string]any

		require.NoError(t, json.Unmarshal([]byte(handle(t, "type", "TestService", "UnaryCall", "Request")), &output))
		assert.Equal(t, "SimpleRequest", output["name"])
		assert.NotEmpty(t, output["field"])
	})

	t.Run("call", func(t *testing.T) {
		assert.JSONEq(t, `{"username":"vdrun"}`,
			handle(t, "call", "TestService", "UnaryCall", `{"fillUsername":true}`))
		assert.JSONEq(t, `{}`,
			handle(t, "call", "TestService", "EmptyCall", `{}`))
	})

	t.Run("call invalid request", func(t *testing.T) {
		_, err := controlenv.HandleCmds(ctx, dir, "call",
			[]string{"TestService", "UnaryCall", `{"unknown":1}`}, invoker)
		require.ErrorContains(t, err, "decode request")
	})

	t.Run("call streaming", func(t *testing.T) {
		_, err := controlenv.HandleCmds(ctx, dir, "call",
			[]string{"TestService", "FullDuplexCall", `{}`}, invoker)
		require.ErrorIs(t, err, controlenv.ErrStreamingMethod)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := controlenv.HandleCmds(ctx, dir, "ls",
			[]string{"TestService", "Reboot"}, invoker)
		require.ErrorIs(t, err, controlenv.ErrNotFound)
	})
}

func TestGRPCInvoker_UnknownSymbol(t *testing.T) {
	dir := startServer(t)
	address := "unix:" + filepath.Join(dir, "test.sock")

	_, err := (&controlenv.GRPCInvoker{}).ListMethods(context.Background(), address, "grpc.testing.Nope")
	require.ErrorIs(t, err, controlenv.ErrNotFound)
}
