// Package credentials loads broker credentials from encrypted storage and
// turns them into NATS connection options.
//
// Secrets are JSON documents encrypted with a gocloud secrets keeper and
// stored as an object in a gocloud blob bucket, so the same code reads a
// local file in development and a cloud bucket with KMS in production:
//
//	p, err := credentials.NewSecretProvider(ctx, credentials.Location{
//	    KeeperURL: "awskms://alias/cms",
//	    BucketURL: "s3://cms-secrets?region=eu-west-1",
//	    Key:       "nats.json",
//	})
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nkeys"
)

var (
	ErrCredentialsExpired = errors.New("credentials expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProviderClosed     = errors.New("provider is closed")
)

// CredentialType selects how a client authenticates.
type CredentialType string

const (
	CredentialTypeToken        CredentialType = "token"
	CredentialTypeUserPassword CredentialType = "user_password"
	CredentialTypeNKey         CredentialType = "nkey"
	CredentialTypeJWT          CredentialType = "jwt"
	CredentialTypeMTLS         CredentialType = "mtls"
)

// Credentials is one set of client credentials. Only the fields of the
// selected Type are used.
type Credentials struct {
	Type CredentialType `json:"type"`

	Token string `json:"token,omitempty"`

	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`

	// Seed is the NKey seed for nkey and jwt credentials. PublicKey is
	// optional and checked against the seed when present.
	Seed      string `json:"seed,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
	JWTToken  string `json:"jwt_token,omitempty"`

	CertPEM string `json:"cert_pem,omitempty"`
	KeyPEM  string `json:"key_pem,omitempty"`
	CAPEM   string `json:"ca_pem,omitempty"`

	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether ExpiresAt lies in the past.
func (c *Credentials) IsExpired() bool {
	return c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt)
}

// Validate checks the fields required by the credential type.
func (c *Credentials) Validate() error {
	switch c.Type {
	case "":
		return fmt.Errorf("%w: type is required", ErrInvalidCredentials)
	case CredentialTypeToken:
		if c.Token == "" {
			return fmt.Errorf("%w: token is required", ErrInvalidCredentials)
		}
	case CredentialTypeUserPassword:
		if c.User == "" || c.Password == "" {
			return fmt.Errorf("%w: user and password are required", ErrInvalidCredentials)
		}
	case CredentialTypeNKey, CredentialTypeJWT:
		if c.Type == CredentialTypeJWT && c.JWTToken == "" {
			return fmt.Errorf("%w: jwt_token is required", ErrInvalidCredentials)
		}
		if c.Seed == "" {
			return fmt.Errorf("%w: seed is required", ErrInvalidCredentials)
		}
		kp, err := nkeys.FromSeed([]byte(c.Seed))
		if err != nil {
			return fmt.Errorf("%w: seed: %v", ErrInvalidCredentials, err)
		}
		defer kp.Wipe()
		if c.PublicKey != "" {
			pub, err := kp.PublicKey()
			if err != nil || pub != c.PublicKey {
				return fmt.Errorf("%w: public_key does not match seed", ErrInvalidCredentials)
			}
		}
	case CredentialTypeMTLS:
		if c.CertPEM == "" || c.KeyPEM == "" {
			return fmt.Errorf("%w: cert_pem and key_pem are required", ErrInvalidCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCredentials, c.Type)
	}
	return nil
}

// LogValue keeps secrets out of logs.
func (c *Credentials) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", string(c.Type))}
	if c.User != "" {
		attrs = append(attrs, slog.String("user", c.User))
	}
	if c.PublicKey != "" {
		attrs = append(attrs, slog.String("public_key", c.PublicKey))
	}
	if c.ExpiresAt != nil {
		attrs = append(attrs, slog.Time("expires_at", *c.ExpiresAt))
	}
	return slog.GroupValue(attrs...)
}

// Provider supplies current credentials.
type Provider interface {
	GetCredentials(ctx context.Context) (*Credentials, error)

	// Rotate drops cached state and reloads from the source.
	Rotate(ctx context.Context) error

	Close() error
}

// StaticProvider always returns the same credentials. Tests and single
// node setups use it.
type StaticProvider struct {
	creds *Credentials
}

func NewStaticProvider(creds *Credentials) (*StaticProvider, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &StaticProvider{creds: creds}, nil
}

func (p *StaticProvider) GetCredentials(context.Context) (*Credentials, error) {
	if p.creds.IsExpired() {
		return nil, ErrCredentialsExpired
	}
	return p.creds, nil
}

func (p *StaticProvider) Rotate(context.Context) error { return nil }

func (p *StaticProvider) Close() error { return nil }
