package main

import (
	"context"
	"net"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

// GRPCServer encapsulates TLS/mTLS configuration, gRPC server instance and listener.
type GRPCServer struct {
	lis net.Listener
	s   *grpc.Server
}

// serverOptions requires client certificates when TLS is configured. Without
// TLS every caller is treated as the single local owner.
func serverOptions(tlsCfg config.TLSConfig) ([]grpc.ServerOption, error) {
	if !tlsCfg.Enabled() {
		logging.ComponentLogger("server").Warnw("TLS is not configured; serving plaintext with a single local owner")
		return []grpc.ServerOption{
			grpc.Creds(insecure.NewCredentials()),
			grpc.UnaryInterceptor(injectOwnerUnary(localOwner)),
			grpc.StreamInterceptor(injectOwnerStream(localOwner)),
		}, nil
	}

	tc, err := tlsCfg.ServerTLS()
	if err != nil {
		return nil, errors.Wrap(err, "server TLS")
	}
	return []grpc.ServerOption{
		grpc.Creds(credentials.NewTLS(tc)),
		grpc.UnaryInterceptor(injectOwnerUnary("")),
		grpc.StreamInterceptor(injectOwnerStream("")),
	}, nil
}

// NewGRPCServer listens on addr and registers service.
func NewGRPCServer(addr string, tlsCfg config.TLSConfig, service apiv1.ScriptRunnerServiceServer) (*GRPCServer, error) {
	opts, err := serverOptions(tlsCfg)
	if err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}
	return newGRPCServerOn(lis, service, opts...), nil
}

func newGRPCServerOn(lis net.Listener, service apiv1.ScriptRunnerServiceServer, opts ...grpc.ServerOption) *GRPCServer {
	s := grpc.NewServer(opts...)
	apiv1.RegisterScriptRunnerServiceServer(s, service)
	return &GRPCServer{lis: lis, s: s}
}

// Serve starts serving gRPC on the configured listener.
func (g *GRPCServer) Serve() error {
	return g.s.Serve(g.lis)
}

// Addr returns the network address the server is bound to.
func (g *GRPCServer) Addr() net.Addr { return g.lis.Addr() }

// Stop stops gracefully, or forcibly once ctx is done.
func (g *GRPCServer) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.s.Stop()
		<-done
	}
}
