package config

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/cockroachdb/errors"
)

func (c TLSConfig) keyPairAndPool() (tls.Certificate, *x509.CertPool, error) {
	cert, err := tls.X509KeyPair([]byte(c.Cert), []byte(c.Key))
	if err != nil {
		return tls.Certificate{}, nil, errors.Wrap(err, "load key pair")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(c.CA)) {
		return tls.Certificate{}, nil, errors.New("failed to append CA certificate to pool")
	}
	return cert, pool, nil
}

// ServerTLS requires and verifies client certificates (mTLS, TLS 1.3).
func (c TLSConfig) ServerTLS() (*tls.Config, error) {
	cert, pool, err := c.keyPairAndPool()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func (c TLSConfig) ClientTLS() (*tls.Config, error) {
	cert, pool, err := c.keyPairAndPool()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
	}, nil
}
