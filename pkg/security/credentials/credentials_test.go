package credentials

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userKey(t *testing.T) (seed, pub string) {
	t.Helper()
	kp, err := nkeys.CreateUser()
	require.NoError(t, err)
	s, err := kp.Seed()
	require.NoError(t, err)
	p, err := kp.PublicKey()
	require.NoError(t, err)
	return string(s), p
}

func TestValidate(t *testing.T) {
	seed, pub := userKey(t)
	_, otherPub := userKey(t)

	tests := []struct {
		name    string
		creds   Credentials
		wantErr string
	}{
		{"token", Credentials{Type: CredentialTypeToken, Token: "t"}, ""},
		{"user password", Credentials{Type: CredentialTypeUserPassword, User: "u", Password: "p"}, ""},
		{"nkey", Credentials{Type: CredentialTypeNKey, Seed: seed, PublicKey: pub}, ""},
		{"nkey without public key", Credentials{Type: CredentialTypeNKey, Seed: seed}, ""},
		{"jwt", Credentials{Type: CredentialTypeJWT, JWTToken: "eyJ", Seed: seed}, ""},
		{"mtls", Credentials{Type: CredentialTypeMTLS, CertPEM: "c", KeyPEM: "k"}, ""},
		{"missing type", Credentials{Token: "t"}, "type is required"},
		{"unknown type", Credentials{Type: "kerberos"}, "unknown type"},
		{"token missing", Credentials{Type: CredentialTypeToken}, "token is required"},
		{"password missing", Credentials{Type: CredentialTypeUserPassword, User: "u"}, "user and password are required"},
		{"bad seed", Credentials{Type: CredentialTypeNKey, Seed: "SUABC123"}, "seed"},
		{"mismatched public key", Credentials{Type: CredentialTypeNKey, Seed: seed, PublicKey: otherPub}, "does not match"},
		{"jwt missing token", Credentials{Type: CredentialTypeJWT, Seed: seed}, "jwt_token is required"},
		{"mtls missing key", Credentials{Type: CredentialTypeMTLS, CertPEM: "c"}, "cert_pem and key_pem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	assert.False(t, (&Credentials{}).IsExpired())
	assert.True(t, (&Credentials{ExpiresAt: &past}).IsExpired())
	assert.False(t, (&Credentials{ExpiresAt: &future}).IsExpired())
}

func TestLogValueRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	creds := &Credentials{Type: CredentialTypeUserPassword, User: "cms", Password: "hunter2"}
	logger.Info("loaded", slog.Any("credentials", creds))

	assert.Contains(t, buf.String(), `"user":"cms"`)
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()

	_, err := NewStaticProvider(&Credentials{Type: CredentialTypeToken})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	p, err := NewStaticProvider(&Credentials{Type: CredentialTypeToken, Token: "abc"})
	require.NoError(t, err)
	c, err := p.GetCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Token)
	assert.NoError(t, p.Rotate(ctx))
	assert.NoError(t, p.Close())

	past := time.Now().Add(-time.Second)
	expired, err := NewStaticProvider(&Credentials{Type: CredentialTypeToken, Token: "old", ExpiresAt: &past})
	require.NoError(t, err)
	_, err = expired.GetCredentials(ctx)
	assert.ErrorIs(t, err, ErrCredentialsExpired)
}
