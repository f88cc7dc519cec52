package main

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// localOwner identifies every caller of a plaintext server.
const localOwner = "local"

type spiffeIdContextKey struct{}

func extractSpiffeIdFromContext(ctx context.Context) *string {
	if v := ctx.Value(spiffeIdContextKey{}); v != nil {
		if spiffeId, ok := v.(string); ok {
			return &spiffeId
		}
	}
	return nil
}

func extractSpiffeIdFromTls(ctx context.Context) *string {
	// First, check if it was already injected into context.
	if v := extractSpiffeIdFromContext(ctx); v != nil {
		return v
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p == nil {
		return nil
	}

	ti, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok {
		return nil
	}

	state := ti.State
	if len(state.PeerCertificates) == 0 || state.PeerCertificates[0] == nil {
		return nil
	}

	// spiffe://client1 -> "client1"
	for _, uri := range state.PeerCertificates[0].URIs {
		if uri != nil && uri.Scheme == "spiffe" && uri.Host != "" {
			return &uri.Host
		}
	}

	return nil
}

func injectSpiffeId(ctx context.Context, spiffeId string) context.Context {
	return context.WithValue(ctx, spiffeIdContextKey{}, spiffeId)
}

// resolveOwner returns the caller's SPIFFE ID, or fallback when the
// connection carries none and fallback is set.
func resolveOwner(ctx context.Context, fallback string) (context.Context, error) {
	owner := extractSpiffeIdFromTls(ctx)
	if owner == nil {
		if fallback == "" {
			return ctx, status.Error(codes.Unauthenticated, "client must have SPIFFE ID")
		}
		owner = &fallback
	}
	return injectSpiffeId(ctx, *owner), nil
}

func injectOwnerUnary(fallback string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := resolveOwner(ctx, fallback)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

type streamWithCtx struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *streamWithCtx) Context() context.Context { return s.ctx }

func injectOwnerStream(fallback string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := resolveOwner(ss.Context(), fallback)
		if err != nil {
			return err
		}
		return handler(srv, &streamWithCtx{ServerStream: ss, ctx: ctx})
	}
}

// checkOwnership lets only the client that started a run see or cancel it.
// Runs the daemon started on its own, from the schedule, have no owner and
// are visible to every authenticated client.
func (s *ScriptRunnerServiceServer) checkOwnership(ctx context.Context, processIdentifier string) error {
	spiffeId := extractSpiffeIdFromContext(ctx)
	if spiffeId == nil {
		return status.Error(codes.Unauthenticated, "client must have SPIFFE ID")
	}

	s.mu.RLock()
	realOwner, owned := s.ownersMap[processIdentifier]
	s.mu.RUnlock()

	if owned && realOwner != *spiffeId {
		return status.Error(codes.PermissionDenied, "Only original owner can access the resource")
	}
	return nil
}
