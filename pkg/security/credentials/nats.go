package credentials

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// NATSOptions converts the provider's current credentials into connection
// options. Token credentials are re-read from the provider on every
// reconnect so a rotated token is picked up without restarting.
func NATSOptions(ctx context.Context, p Provider) ([]nats.Option, error) {
	creds, err := p.GetCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	switch creds.Type {
	case CredentialTypeToken:
		last := creds.Token
		return []nats.Option{nats.TokenHandler(func() string {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if c, err := p.GetCredentials(ctx); err == nil && c.Token != "" {
				last = c.Token
			}
			return last
		})}, nil

	case CredentialTypeUserPassword:
		return []nats.Option{nats.UserInfo(creds.User, creds.Password)}, nil

	case CredentialTypeNKey:
		kp, err := nkeys.FromSeed([]byte(creds.Seed))
		if err != nil {
			return nil, fmt.Errorf("%w: seed: %v", ErrInvalidCredentials, err)
		}
		pub, err := kp.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("%w: public key: %v", ErrInvalidCredentials, err)
		}
		return []nats.Option{nats.Nkey(pub, kp.Sign)}, nil

	case CredentialTypeJWT:
		return []nats.Option{nats.UserJWTAndSeed(creds.JWTToken, creds.Seed)}, nil

	case CredentialTypeMTLS:
		cfg, err := tlsConfig(creds)
		if err != nil {
			return nil, err
		}
		return []nats.Option{nats.Secure(cfg)}, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidCredentials, creds.Type)
}

func tlsConfig(c *Credentials) (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(c.CertPEM), []byte(c.KeyPEM))
	if err != nil {
		return nil, fmt.Errorf("%w: key pair: %v", ErrInvalidCredentials, err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if c.CAPEM != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(c.CAPEM)) {
			return nil, errors.Join(ErrInvalidCredentials, errors.New("no certificates in ca_pem"))
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
