// Package password hashes user passwords with bcrypt and rates their
// strength by entropy.
package password

import (
	"errors"
	"fmt"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
	DefaultCost = 12

	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
	MinEntropyBits    = 60
)

var (
	ErrEmpty   = errors.New("password is empty")
	ErrTooLong = errors.New("password too long")
)

type hashConfig struct {
	cost int
}

type HashOpt func(*hashConfig)

// WithCost overrides the bcrypt cost. Out of range values are ignored.
func WithCost(cost int) HashOpt {
	return func(c *hashConfig) {
		if cost >= MinCost && cost <= MaxCost {
			c.cost = cost
		}
	}
}

// Hash returns the bcrypt hash of plain.
func Hash(plain string, opts ...HashOpt) (string, error) {
	if err := checkLength(plain); err != nil {
		return "", err
	}
	cfg := hashConfig{cost: DefaultCost}
	for _, opt := range opts {
		opt(&cfg)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cfg.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Compare returns nil when plain matches hash.
func Compare(hash, plain string) error {
	if hash == "" || plain == "" {
		return ErrEmpty
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// ValidateStrength rejects passwords below MinEntropyBits or longer than
// bcrypt accepts.
func ValidateStrength(plain string) error {
	if len(plain) > MaxPasswordLength {
		return ErrTooLong
	}
	return passwordvalidator.Validate(plain, MinEntropyBits)
}

func checkLength(plain string) error {
	switch {
	case plain == "":
		return ErrEmpty
	case len(plain) > MaxPasswordLength:
		return ErrTooLong
	}
	return nil
}

// Hasher turns a plain text password into its stored form.
type Hasher func(plain string) (string, error)

func NewHasher(opts ...HashOpt) Hasher {
	return func(plain string) (string, error) { return Hash(plain, opts...) }
}
