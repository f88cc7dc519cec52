package main

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/config"
)

// dial connects with mTLS when certificates are configured, in plaintext otherwise.
func dial(g *globalFlags) (*grpc.ClientConn, apiv1.ScriptRunnerServiceClient, error) {
	v, err := config.New(g.configFile)
	if err != nil {
		return nil, nil, err
	}
	if g.address != "" {
		v.Set("address", g.address)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	creds := insecure.NewCredentials()
	if cfg.TLS.Enabled() {
		tc, err := cfg.TLS.ClientTLS()
		if err != nil {
			return nil, nil, errors.Wrap(err, "client TLS")
		}
		creds = credentials.NewTLS(tc)
	}

	conn, err := grpc.NewClient(cfg.Address, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dial %s", cfg.Address)
	}
	return conn, apiv1.NewScriptRunnerServiceClient(conn), nil
}

func grpcCode(err error) codes.Code {
	st, ok := status.FromError(err)
	if !ok {
		return codes.Unknown
	}
	return st.Code()
}
