package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/control"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/runner"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/signal"
)

type tlsEnv struct {
	ca  *testCA
	lis *bufconn.Listener
}

func newTLSEnv(t *testing.T) *tlsEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping: needs a POSIX shell")
	}
	logger := zaptest.NewLogger(t).Sugar()

	ca := newTestCA(t, "prn test ca")
	server := ca.issue(t, "")
	opts, err := serverOptions(config.TLSConfig{Key: server.key, Cert: server.cert, CA: ca.pem})
	require.NoError(t, err)

	r := runner.NewRunner(runner.WithLogger(logger))
	sig, err := signal.New(filepath.Join(t.TempDir(), signal.DefaultFileName), r, signal.WithLogger(logger))
	require.NoError(t, err)
	c := control.New(r, sig, control.WithLogger(logger))

	lis := bufconn.Listen(1 << 20)
	srv := newGRPCServerOn(lis, NewScriptRunnerServiceServer(c, r, sig.Path()), opts...)
	go func() { _ = srv.Serve() }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(ctx)
		srv.Stop(ctx)
	})
	return &tlsEnv{ca: ca, lis: lis}
}

func (e *tlsEnv) client(t *testing.T, creds credentials.TransportCredentials) apiv1.ScriptRunnerServiceClient {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return e.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(creds))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return apiv1.NewScriptRunnerServiceClient(conn)
}

func clientCreds(t *testing.T, trusted *testCA, pair *keyPair) credentials.TransportCredentials {
	t.Helper()
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM([]byte(trusted.pem)))
	cfg := &tls.Config{RootCAs: pool, ServerName: "localhost", MinVersion: tls.VersionTLS13}
	if pair != nil {
		cert, err := tls.X509KeyPair([]byte(pair.cert), []byte(pair.key))
		require.NoError(t, err)
		cfg.Certificates = []tls.Certificate{cert}
	}
	return credentials.NewTLS(cfg)
}

func shortCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestTLS_ServerExpectsTls(t *testing.T) {
	e := newTLSEnv(t)
	_, err := e.client(t, insecure.NewCredentials()).List(shortCtx(t), &apiv1.ListRequest{})
	assert.Error(t, err)
}

func TestTLS_ServerExpectsClientCert(t *testing.T) {
	e := newTLSEnv(t)
	_, err := e.client(t, clientCreds(t, e.ca, nil)).List(shortCtx(t), &apiv1.ListRequest{})
	assert.Error(t, err)
}

func TestTLS_ServerExpectsCorrectClientCa(t *testing.T) {
	e := newTLSEnv(t)
	fake := newTestCA(t, "fake ca").issue(t, "client1")
	_, err := e.client(t, clientCreds(t, e.ca, &fake)).List(shortCtx(t), &apiv1.ListRequest{})
	assert.Error(t, err)
}

func TestTLS_ClientExpectsCorrectServerCa(t *testing.T) {
	e := newTLSEnv(t)
	other := newTestCA(t, "other ca")
	pair := e.ca.issue(t, "client1")
	_, err := e.client(t, clientCreds(t, other, &pair)).List(shortCtx(t), &apiv1.ListRequest{})
	assert.Error(t, err)
}

func TestTLS_ClientNeedsSpiffeId(t *testing.T) {
	e := newTLSEnv(t)
	pair := e.ca.issue(t, "")
	_, err := e.client(t, clientCreds(t, e.ca, &pair)).List(shortCtx(t), &apiv1.ListRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestTLS_OwnershipFollowsSpiffeId(t *testing.T) {
	e := newTLSEnv(t)
	pair1 := e.ca.issue(t, "client1")
	pair2 := e.ca.issue(t, "client2")
	client1 := e.client(t, clientCreds(t, e.ca, &pair1))
	client2 := e.client(t, clientCreds(t, e.ca, &pair2))

	run, err := client1.Run(shortCtx(t), sh("sleep 5"))
	require.NoError(t, err)
	id := run.GetProcessIdentifier()

	_, err = client2.Status(shortCtx(t), &apiv1.StatusRequest{ProcessIdentifier: id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = client2.Cancel(shortCtx(t), &apiv1.CancelRequest{ProcessIdentifier: id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	st, err := client1.Status(shortCtx(t), &apiv1.StatusRequest{ProcessIdentifier: id})
	require.NoError(t, err)
	assert.Equal(t, apiv1.ProcessState_PROCESS_STATE_RUNNING, st.GetStatus().GetState())

	_, err = client1.Cancel(shortCtx(t), &apiv1.CancelRequest{ProcessIdentifier: id})
	require.NoError(t, err)
}
